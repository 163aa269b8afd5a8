package executor

import "strings"

// StripPrompts removes the first occurrence of each prompt from output and
// trims the result. Runners echo the prompts they print, and the user has
// already seen them while answering; identical program output elsewhere is
// removed as well, which is a known trade-off of matching on text alone.
func StripPrompts(output string, prompts []string) string {
	for _, p := range prompts {
		if p == "" {
			continue
		}
		if i := strings.Index(output, p); i >= 0 {
			output = output[:i] + output[i+len(p):]
		}
	}
	return strings.TrimSpace(output)
}
