package analysis

import "strings"

// inputMarkers are the standard-input API fragments that suggest a program
// reads from stdin.
var inputMarkers = map[string][]string{
	"java":       {"Scanner", "System.in"},
	"cpp":        {"cin", "getline"},
	"c":          {"scanf", "gets", "getchar"},
	"python":     {"input("},
	"starlark":   {"input("},
	"javascript": {"prompt("},
	"go":         {"fmt.Scan", "os.Stdin"},
}

// NeedsInput reports whether source probably blocks on standard input. It
// is a plain substring test: markers inside comments or strings count too,
// so callers should use it only to decide whether to ask the user first.
func NeedsInput(langID, source string) bool {
	for _, marker := range inputMarkers[langID] {
		if strings.Contains(source, marker) {
			return true
		}
	}
	return false
}
