package pipeline

import (
	"context"
	"fmt"
)

// runCodegen invokes the code-generation CLI in dir with objective as the
// prompt. contextText, when non-empty, is prepended so a feedback run sees
// the original task it is reworking. The tool's stderr/stdout travel back
// in the Result for last_error reporting.
func (p *Pipeline) runCodegen(ctx context.Context, dir, objective, contextText string) (Result, error) {
	prompt := objective
	if contextText != "" {
		prompt = fmt.Sprintf("Original task:\n%s\n\nReviewer feedback to address:\n%s", contextText, objective)
	}

	return p.runner.Run(ctx, Spec{
		Name: p.opts.CodegenBinary,
		Args: []string{
			"--dangerously-skip-permissions",
			"-p", prompt,
		},
		Dir:     dir,
		Timeout: p.opts.ToolTimeout,
	})
}
