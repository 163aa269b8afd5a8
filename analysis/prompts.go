package analysis

import (
	"regexp"
	"strings"
)

// Prompt is a string literal in the source that looks like a request for
// input. Line is the 1-based line the literal starts on.
type Prompt struct {
	Text string `json:"text"`
	Line int    `json:"line,omitempty"`
}

type extractMode int

const (
	// strict keeps only literals that read like prompts; the matched call
	// is a general print call.
	strict extractMode = iota
	// loose keeps every literal; the matched call reads input itself.
	loose
)

type promptRule struct {
	pattern *regexp.Regexp
	mode    extractMode
}

// Each pattern captures a single literal that contains no quote of its own
// kind. Escaped quotes and multi-line literals are not handled.
var promptRules = map[string]promptRule{
	"java": {
		pattern: regexp.MustCompile(`System\.out\.print(?:ln|f)?\s*\(\s*"([^"]+)"`),
		mode:    strict,
	},
	"cpp": {
		pattern: regexp.MustCompile(`cout\s*<<\s*"([^"]+)"`),
		mode:    strict,
	},
	"c": {
		pattern: regexp.MustCompile(`printf\s*\(\s*"([^"]+)"`),
		mode:    strict,
	},
	"go": {
		pattern: regexp.MustCompile(`fmt\.Print(?:ln|f)?\s*\(\s*"([^"]+)"`),
		mode:    strict,
	},
	"python": {
		pattern: regexp.MustCompile(`\binput\s*\(\s*(?:"([^"]+)"|'([^']+)')`),
		mode:    loose,
	},
	"starlark": {
		pattern: regexp.MustCompile(`\binput\s*\(\s*(?:"([^"]+)"|'([^']+)')`),
		mode:    loose,
	},
	"javascript": {
		pattern: regexp.MustCompile(`\bprompt\s*\(\s*(?:"([^"]+)"|'([^']+)')`),
		mode:    loose,
	},
}

var promptKeywords = []string{"enter", "input", "type"}

// ExtractPrompts returns the prompt-like literals of source in lexical
// order. Repeated literals are kept: each occurrence is one input step.
// Languages without a known print or input convention yield nil.
func ExtractPrompts(langID, source string) []Prompt {
	rule, ok := promptRules[langID]
	if !ok {
		return nil
	}

	var (
		prompts []Prompt
		line    = 1
		scanned = 0
	)
	for _, m := range rule.pattern.FindAllStringSubmatchIndex(source, -1) {
		text := firstGroup(source, m)
		if text == "" {
			continue
		}
		if rule.mode == strict && !looksLikePrompt(text) {
			continue
		}
		line += strings.Count(source[scanned:m[0]], "\n")
		scanned = m[0]
		prompts = append(prompts, Prompt{Text: text, Line: line})
	}
	return prompts
}

// firstGroup returns the first non-empty capture group of a match.
func firstGroup(source string, m []int) string {
	for i := 2; i+1 < len(m); i += 2 {
		if m[i] >= 0 && m[i+1] > m[i] {
			return source[m[i]:m[i+1]]
		}
	}
	return ""
}

func looksLikePrompt(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range promptKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return strings.HasSuffix(strings.TrimSpace(text), "?")
}

// PromptTexts flattens prompts to their literal text.
func PromptTexts(prompts []Prompt) []string {
	if len(prompts) == 0 {
		return nil
	}
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = p.Text
	}
	return out
}
