package poll

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fennwick/taskboard/internal/pipeline"
)

// depCheckTimeout bounds each startup probe; version checks that hang are
// as fatal as missing binaries.
const depCheckTimeout = 30 * time.Second

// ValidateDependencies fails fast when a required external tool is missing
// or unauthenticated. Run once before the first cycle: every cycle would
// fail identically, so there is no point entering the loop.
func ValidateDependencies(ctx context.Context, runner pipeline.CommandRunner, gitBinary, ghBinary, codegenBinary string) error {
	checks := []struct {
		name string
		spec pipeline.Spec
		hint string
	}{
		{
			name: "git",
			spec: pipeline.Spec{Name: gitBinary, Args: []string{"--version"}, Timeout: depCheckTimeout},
			hint: "install git and ensure it is on PATH",
		},
		{
			name: "gh auth",
			spec: pipeline.Spec{Name: ghBinary, Args: []string{"auth", "status"}, Timeout: depCheckTimeout},
			hint: "run `gh auth login` so pull requests can be opened",
		},
		{
			name: "codegen tool",
			spec: pipeline.Spec{Name: codegenBinary, Args: []string{"--version"}, Timeout: depCheckTimeout},
			hint: "install the code-generation CLI and ensure it is on PATH",
		},
	}

	var failures []string
	for _, c := range checks {
		res, err := runner.Run(ctx, c.spec)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v (%s)", c.name, err, c.hint))
			continue
		}
		if !res.Ok() {
			failures = append(failures, fmt.Sprintf("%s: %s (%s)", c.name, res.FailureText(), c.hint))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("poll: startup dependency check failed:\n  %s", strings.Join(failures, "\n  "))
	}
	return nil
}
