package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/caffeineduck/runpad/analysis"
	"github.com/caffeineduck/runpad/remote"
)

const outOfInputHint = "\n\n[System Helper]: The program ran out of input!\n" +
	"- Answer every prompt, or put one value per line in the program input."

// outOfInputMarkers are runtime messages meaning the program read past the
// end of its stdin.
var outOfInputMarkers = map[string]string{
	"java": "java.util.NoSuchElementException",
}

func (e *Executor) runRemote(ctx context.Context, req Request, cfg runConfig) (Result, error) {
	desc := req.Language
	target := desc.Remote
	if target == nil {
		return Result{}, &DispatchError{Op: "remote", Language: desc.ID, Err: errors.New("no remote target")}
	}

	file := remote.File{Content: req.Source}
	var entry string
	if desc.EntryPoint {
		ep, err := analysis.AnalyzeEntryPoint(req.Source)
		if err != nil {
			return Result{}, err
		}
		file = remote.File{Name: ep.FileName, Content: ep.Source}
		entry = ep.Class
		e.logger.Debug("entry point detected", zap.String("class", entry))
	}

	if e.remote == nil {
		return Result{}, &DispatchError{Op: "remote", Language: desc.ID, Err: ErrNoRuntime}
	}

	resp, err := e.remote.Execute(ctx, remote.Request{
		Language: target.Language,
		Version:  target.Version,
		Files:    []remote.File{file},
		Stdin:    req.Stdin,
	})
	if err != nil {
		return Result{}, &DispatchError{Op: "remote", Language: desc.ID, Err: err}
	}

	res := Result{EntryPoint: entry}
	if resp.Run == nil {
		// A failed compile stage may come back without a run stage.
		if resp.Compile.Failed() {
			res.Output = StripPrompts(resp.Compile.Output, nil)
			res.Failed = true
			return res, nil
		}
		res.Output = noServerReply
		return res, nil
	}

	output := resp.Run.Output
	if file.Name != "" {
		output = fmt.Sprintf("[Compiler] Detected entry class: %s\nRunning...\n---\n", entry) + output
	}
	if marker, ok := outOfInputMarkers[desc.ID]; ok && strings.Contains(output, marker) {
		output += outOfInputHint
	}

	res.Output = StripPrompts(output, cfg.echoed)
	res.Failed = resp.Run.Failed()
	return res, nil
}
