package checker_test

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/shapematch/pkg/alg/mapx"
	"github.com/Sumatoshi-tech/shapematch/pkg/checker"
)

func ExampleChecker_Check() {
	chk, err := checker.New(nil)
	if err != nil {
		fmt.Println(err)

		return
	}

	pattern := "_accu_ = 0\nfor _item_ in _iList_:\n    _accu_ = _accu_ + _item_\n"
	submission := "total = 0\nfor n in numbers:\n    total = total + n\nprint(total)\n"

	result, err := chk.Check(context.Background(), pattern, submission)
	if err != nil {
		fmt.Println(err)

		return
	}

	bindings := result.Bindings()

	fmt.Println("matched:", result.Matched())

	for _, name := range mapx.SortedKeys(bindings) {
		fmt.Printf("_%s_ = %s\n", name, bindings[name])
	}

	// Output:
	// matched: true
	// _accu_ = total
	// _iList_ = numbers
	// _item_ = n
}

func ExampleChecker_CheckAll() {
	chk, err := checker.New(nil)
	if err != nil {
		fmt.Println(err)

		return
	}

	patterns := map[string]string{
		"for-loop":   "for _x_ in _xs_:\n    pass\n",
		"while-loop": "while ___:\n    pass\n",
	}

	results, err := chk.CheckAll(context.Background(), patterns, "for row in grid:\n    print(row)\n")
	if err != nil {
		fmt.Println(err)

		return
	}

	for _, name := range mapx.SortedKeys(results) {
		fmt.Println(name, results[name].Matched())
	}

	// Output:
	// for-loop true
	// while-loop false
}
