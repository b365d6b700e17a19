package mirror

import (
	"strings"

	"editor/internal/models"
)

// Editor language ids by file extension, used when a file is created
// without an explicit language.
var languageByExt = map[string]string{
	"js":   "javascript",
	"jsx":  "javascript",
	"py":   "python",
	"cpp":  "cpp",
	"c":    "c",
	"java": "java",
}

// LanguageForPath maps a file path to its editor language id, defaulting
// to plaintext.
func LanguageForPath(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 || i == len(path)-1 {
		return models.LangPlaintext
	}
	if lang, ok := languageByExt[strings.ToLower(path[i+1:])]; ok {
		return lang
	}
	return models.LangPlaintext
}
