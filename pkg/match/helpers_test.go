package match_test

import (
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

// Tree builders mirroring the shapes produced by the Python mapping.

func name(token string) *node.Node {
	return node.New(node.KindName, token)
}

func constant(token string) *node.Node {
	return node.New(node.KindConstant, token)
}

func pass() *node.Node {
	return node.New(node.KindPass, "")
}

func with(kind node.Kind, token string, children ...*node.Node) *node.Node {
	return node.NewBuilder().WithKind(kind).WithToken(token).WithChildren(children...).Build()
}

func block(stmts ...*node.Node) *node.Node {
	return with(node.KindBlock, "", stmts...)
}

func assign(target, value *node.Node) *node.Node {
	return with(node.KindAssign, "", target, value)
}

func binop(op string, left, right *node.Node) *node.Node {
	return with(node.KindBinOp, op, left, right)
}

func forLoop(target, iter *node.Node, body ...*node.Node) *node.Node {
	return with(node.KindFor, "", target, iter, block(body...))
}

func exprStmt(child *node.Node) *node.Node {
	return with(node.KindExpr, "", child)
}

func call(fn string, args ...*node.Node) *node.Node {
	return with(node.KindCall, "", name(fn), with(node.KindArguments, "", args...))
}

func list(items ...*node.Node) *node.Node {
	return with(node.KindList, "", items...)
}

// accumulatorPattern is
//
//	_accu_ = 0
//	_iList_ = __listInit__
//	for _item_ in _iList_:
//	    _accu_ = _accu_ + _item_
//	print(_accu_)
func accumulatorPattern() *node.Node {
	return block(
		assign(name("_accu_"), constant("0")),
		assign(name("_iList_"), name("__listInit__")),
		forLoop(name("_item_"), name("_iList_"),
			assign(name("_accu_"), binop("+", name("_accu_"), name("_item_"))),
		),
		exprStmt(call("print", name("_accu_"))),
	)
}

// accumulatorSubject is
//
//	total = 0
//	numbers = [1, 2, 3]
//	for n in numbers:
//	    total = total + n
//	print(total)
func accumulatorSubject() *node.Node {
	return block(
		assign(name("total"), constant("0")),
		assign(name("numbers"), list(constant("1"), constant("2"), constant("3"))),
		forLoop(name("n"), name("numbers"),
			assign(name("total"), binop("+", name("total"), name("n"))),
		),
		exprStmt(call("print", name("total"))),
	)
}

// twoStatementLoop is
//
//	for item in items:
//	    total = total + item
//	    count = count + 1
func twoStatementLoop() *node.Node {
	return block(
		forLoop(name("item"), name("items"),
			assign(name("total"), binop("+", name("total"), name("item"))),
			assign(name("count"), binop("+", name("count"), constant("1"))),
		),
	)
}
