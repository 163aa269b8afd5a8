package analysis

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoBlocksFound = errors.New("no class definitions found")
	ErrNoEntryPoint  = errors.New("no main(String[] args) found")
)

// Error is returned when source cannot be prepared for the remote runner.
// It aborts a run before anything is sent over the network.
type Error struct {
	Err error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Block is one top-level type declaration. Start is the offset of its
// opening line and End the offset where the next block starts (or the end
// of source): bodies are delimited by their successor, not by braces.
type Block struct {
	Name          string `json:"name"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	Abstract      bool   `json:"abstract"`
	HasEntryPoint bool   `json:"hasEntryPoint"`
}

// EntryPoint is the result of AnalyzeEntryPoint.
type EntryPoint struct {
	Class          string  `json:"class"`
	FileName       string  `json:"fileName"`
	Source         string  `json:"source"`
	CompileCommand string  `json:"compileCommand"`
	RunCommand     string  `json:"runCommand"`
	Blocks         []Block `json:"blocks"`
}

var (
	blockPattern = regexp.MustCompile(
		`\b((?:(?:public|protected|private|abstract|final|static|strictfp)\s+)*)` +
			`(class|interface|enum)\s+(\w+)\s*` +
			`(?:<[^{}]*?>\s*)?` +
			`(?:(?:extends|implements)\s+[\w.<>,?\s]+?)?\{`)

	mainPattern = regexp.MustCompile(`public\s+static\s+void\s+main\s*\(\s*String\s*[\[\]\.]+\s*\w+\s*\)`)
)

// Blocks lists the top-level type blocks of source in lexical order,
// marking every block that declares main(String[]). Nested declarations
// are reported as if they were top level.
func Blocks(source string) []Block {
	matches := blockPattern.FindAllStringSubmatchIndex(source, -1)
	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		modifiers := source[m[2]:m[3]]
		kind := source[m[4]:m[5]]
		blocks = append(blocks, Block{
			Name:     source[m[6]:m[7]],
			Start:    m[0],
			Abstract: kind == "interface" || strings.Contains(modifiers, "abstract"),
		})
	}
	for i := range blocks {
		if i+1 < len(blocks) {
			blocks[i].End = blocks[i+1].Start
		} else {
			blocks[i].End = len(source)
		}
		blocks[i].HasEntryPoint = mainPattern.MatchString(source[blocks[i].Start:blocks[i].End])
	}
	return blocks
}

// AnalyzeEntryPoint finds the first non-abstract block declaring
// main(String[]) and moves it ahead of every other block, so a runner that
// compiles the first declared type starts at the right class. The header
// before the first block (package, imports, comments) stays in front.
func AnalyzeEntryPoint(source string) (*EntryPoint, error) {
	blocks := Blocks(source)
	if len(blocks) == 0 {
		return nil, &Error{Err: ErrNoBlocksFound}
	}

	entry := -1
	for i, b := range blocks {
		if b.HasEntryPoint && !b.Abstract {
			entry = i
			break
		}
	}
	if entry == -1 {
		return nil, &Error{Err: ErrNoEntryPoint}
	}

	main := blocks[entry]

	var out strings.Builder
	out.Grow(len(source) + 2*len(blocks) + 2)
	out.WriteString(source[:blocks[0].Start])
	out.WriteString("\n")
	out.WriteString(source[main.Start:main.End])
	out.WriteString("\n\n")
	for i, b := range blocks {
		if i == entry {
			continue
		}
		out.WriteString(source[b.Start:b.End])
		out.WriteString("\n\n")
	}

	return &EntryPoint{
		Class:          main.Name,
		FileName:       main.Name + ".java",
		Source:         out.String(),
		CompileCommand: "javac *.java",
		RunCommand:     "java " + main.Name,
		Blocks:         blocks,
	}, nil
}
