package uast

import (
	"path"
	"strings"
	"sync"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"
)

var languageFuncs = map[string]func() unsafe.Pointer{
	"python": python.GetLanguage,
}

var languageCache sync.Map

// GetLanguage returns the tree-sitter Language for the given name, or nil if not supported.
func GetLanguage(name string) *sitter.Language {
	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	fn, ok := languageFuncs[name]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(fn())
	languageCache.Store(name, lang)

	return lang
}

// SupportedLanguages lists the grammars compiled into the binary.
func SupportedLanguages() []string {
	names := make([]string, 0, len(languageFuncs))

	for name := range languageFuncs {
		names = append(names, name)
	}

	return names
}

// DetectLanguage guesses the language of a file from its name and content.
// Returns an empty string when nothing is recognized.
func DetectLanguage(filename string, content []byte) string {
	return strings.ToLower(enry.GetLanguage(path.Base(filename), content))
}

// isForeignProgram reports whether the file is recognized as a programming
// language other than lang. Unknown files, prose and data are accepted.
func isForeignProgram(filename string, content []byte, lang string) bool {
	detected := enry.GetLanguage(path.Base(filename), content)
	if detected == "" || enry.GetLanguageType(detected) != enry.Programming {
		return false
	}

	return !strings.EqualFold(detected, lang)
}
