package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fennwick/taskboard/internal/columns"
	"github.com/fennwick/taskboard/internal/models"
)

// Coordinator is the slice of the claim coordinator the pipeline needs.
// Every processing path calls exactly one of Resolve / RecordError /
// RecordFeedbackError per task.
type Coordinator interface {
	Resolve(ctx context.Context, taskID, prURL, resolvedColumnID string) error
	RecordError(ctx context.Context, taskID, message, targetColumnID string) error
	RecordFeedbackError(ctx context.Context, taskID, message string) error
	ClearFeedback(ctx context.Context, taskID string) error
}

// Options holds the pipeline's external-tool settings.
type Options struct {
	WorkspaceRoot    string
	ToolTimeout      time.Duration
	CleanupOnSuccess bool
	GitBinary        string
	GhBinary         string
	CodegenBinary    string
	GitHubToken      string
}

// Outcome summarizes how a task ended, for logging and notifications. A
// non-resolved outcome with an Err is a recorded failure, not a loop error.
type Outcome struct {
	Resolved bool
	PRURL    string
	Err      string
}

// Pipeline orchestrates the external steps for one claimed task.
type Pipeline struct {
	runner CommandRunner
	coord  Coordinator
	opts   Options
}

// New builds a Pipeline.
func New(runner CommandRunner, coord Coordinator, opts Options) *Pipeline {
	if opts.GitBinary == "" {
		opts.GitBinary = "git"
	}
	if opts.GhBinary == "" {
		opts.GhBinary = "gh"
	}
	if opts.CodegenBinary == "" {
		opts.CodegenBinary = "claude"
	}
	return &Pipeline{runner: runner, coord: coord, opts: opts}
}

// ProcessNew drives a freshly claimed task: clone, branch, generate, and
// either open a PR and resolve, or record the failure and bounce the task
// back to backlog. The returned error is reserved for store failures; tool
// failures come back inside the Outcome.
func (p *Pipeline) ProcessNew(ctx context.Context, task models.Task, roles columns.Roles) (Outcome, error) {
	prURL, procErr := p.runNew(ctx, task)
	if procErr != nil {
		if err := p.coord.RecordError(ctx, task.ID, procErr.Error(), roles.BacklogID); err != nil {
			return Outcome{}, err
		}
		return Outcome{Err: procErr.Error()}, nil
	}

	if err := p.coord.Resolve(ctx, task.ID, prURL, roles.ResolvedID); err != nil {
		return Outcome{}, err
	}
	p.cleanup(task.ID)
	return Outcome{Resolved: true, PRURL: prURL}, nil
}

// ProcessFeedback drives a feedback task: check out the existing branch,
// rework it against the reviewer's feedback, and resolve with a fresh PR
// URL. On failure the lease is released but the task stays in-progress so
// the next poll re-discovers it as a feedback task.
func (p *Pipeline) ProcessFeedback(ctx context.Context, task models.Task, roles columns.Roles) (Outcome, error) {
	prURL, procErr := p.runFeedback(ctx, task)
	if procErr != nil {
		if err := p.coord.RecordFeedbackError(ctx, task.ID, procErr.Error()); err != nil {
			return Outcome{}, err
		}
		return Outcome{Err: procErr.Error()}, nil
	}

	if err := p.coord.ClearFeedback(ctx, task.ID); err != nil {
		return Outcome{}, err
	}
	if err := p.coord.Resolve(ctx, task.ID, prURL, roles.ResolvedID); err != nil {
		return Outcome{}, err
	}
	p.cleanup(task.ID)
	return Outcome{Resolved: true, PRURL: prURL}, nil
}

// runNew performs the external steps for a new task and returns the PR URL.
func (p *Pipeline) runNew(ctx context.Context, task models.Task) (string, error) {
	repoURL, err := repoURLOf(task)
	if err != nil {
		return "", err
	}
	dir := p.workspaceDir(task.ID)
	branch := BranchName(task.ID)

	if err := p.cloneOrRefresh(ctx, repoURL, dir); err != nil {
		return "", err
	}
	if err := p.createBranch(ctx, dir, branch); err != nil {
		return "", err
	}

	res, err := p.runCodegen(ctx, dir, task.Description, "")
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", errors.New(res.FailureText())
	}

	changed, err := p.hasChanges(ctx, dir)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", errors.New("no changes")
	}

	if err := p.commitAll(ctx, dir, commitMessage(task)); err != nil {
		return "", err
	}
	if err := p.pushBranch(ctx, dir, branch); err != nil {
		return "", err
	}
	return p.createPR(ctx, dir, branch, prTitle(task), task.Description)
}

// runFeedback performs the external steps for a feedback task and returns
// the (possibly refreshed) PR URL.
func (p *Pipeline) runFeedback(ctx context.Context, task models.Task) (string, error) {
	repoURL, err := repoURLOf(task)
	if err != nil {
		return "", err
	}
	dir := p.workspaceDir(task.ID)
	branch := BranchName(task.ID)

	if err := p.cloneOrRefresh(ctx, repoURL, dir); err != nil {
		return "", err
	}
	if err := p.checkoutBranch(ctx, dir, branch); err != nil {
		return "", err
	}

	res, err := p.runCodegen(ctx, dir, task.Feedback, task.Description)
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", errors.New(res.FailureText())
	}

	changed, err := p.hasChanges(ctx, dir)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", errors.New("no changes")
	}

	if err := p.commitAll(ctx, dir, "autoclaude: address reviewer feedback"); err != nil {
		return "", err
	}
	if err := p.pushBranch(ctx, dir, branch); err != nil {
		return "", err
	}

	// The push updates the existing PR; refresh its URL in case the stored
	// one went stale (PR closed and reopened, repo renamed).
	url, err := p.prURLForBranch(ctx, dir, repoURL, branch)
	if err != nil {
		log.Printf("pipeline: refresh PR URL for task %s: %v", task.ID, err)
		return task.PRURL, nil
	}
	return url, nil
}

// cleanup removes the task workspace when configured to. Best-effort.
func (p *Pipeline) cleanup(taskID string) {
	if !p.opts.CleanupOnSuccess {
		return
	}
	if err := p.removeWorkspace(taskID); err != nil {
		log.Printf("pipeline: cleanup task %s: %v", taskID, err)
	}
}

func repoURLOf(task models.Task) (string, error) {
	if task.Project.RepoURL == nil || *task.Project.RepoURL == "" {
		return "", fmt.Errorf("project %s has no repo URL", task.ProjectID)
	}
	return *task.Project.RepoURL, nil
}

// commitMessage builds a one-line commit subject from the task description.
func commitMessage(task models.Task) string {
	return "autoclaude: " + firstLine(task.Description, 72)
}

// prTitle builds the PR title from the task description.
func prTitle(task models.Task) string {
	return firstLine(task.Description, 100)
}

func firstLine(s string, max int) string {
	line := s
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		line = s[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		line = "automated change"
	}
	if len(line) > max {
		line = line[:max]
	}
	return line
}
