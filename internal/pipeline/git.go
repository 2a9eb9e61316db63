package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BranchName derives the deterministic branch for a task, so a feedback
// cycle lands on the same branch the original PR was opened from.
func BranchName(taskID string) string {
	return "autoclaude/task-" + taskID
}

// cloneOrRefresh makes dir a current clone of repoURL: a fresh clone when
// the directory does not hold one yet, otherwise a fetch plus hard reset to
// the default branch.
func (p *Pipeline) cloneOrRefresh(ctx context.Context, repoURL, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("pipeline: create workspace %s: %w", dir, err)
		}
		res, err := p.git(ctx, "", "clone", repoURL, dir)
		if err != nil {
			return err
		}
		if !res.Ok() {
			return fmt.Errorf("pipeline: clone %s: %s", repoURL, res.FailureText())
		}
		return nil
	}

	for _, args := range [][]string{
		{"fetch", "origin"},
		{"checkout", p.defaultBranch(ctx, dir)},
		{"reset", "--hard", "origin/" + p.defaultBranch(ctx, dir)},
	} {
		res, err := p.git(ctx, dir, args...)
		if err != nil {
			return err
		}
		if !res.Ok() {
			return fmt.Errorf("pipeline: refresh clone (%s): %s", strings.Join(args, " "), res.FailureText())
		}
	}
	return nil
}

// defaultBranch resolves origin's HEAD branch name, falling back to "main".
func (p *Pipeline) defaultBranch(ctx context.Context, dir string) string {
	res, err := p.git(ctx, dir, "symbolic-ref", "refs/remotes/origin/HEAD", "--short")
	if err != nil || !res.Ok() {
		return "main"
	}
	name := strings.TrimSpace(res.Stdout)
	name = strings.TrimPrefix(name, "origin/")
	if name == "" {
		return "main"
	}
	return name
}

// createBranch creates branch off the default branch, or checks it out when
// it already exists.
func (p *Pipeline) createBranch(ctx context.Context, dir, branch string) error {
	res, err := p.git(ctx, dir, "checkout", "-b", branch)
	if err != nil {
		return err
	}
	if res.Ok() {
		return nil
	}
	if strings.Contains(res.Stderr, "already exists") {
		return p.checkoutBranch(ctx, dir, branch)
	}
	return fmt.Errorf("pipeline: create branch %q: %s", branch, res.FailureText())
}

// checkoutBranch checks out an existing branch, trying origin when the
// branch is not known locally.
func (p *Pipeline) checkoutBranch(ctx context.Context, dir, branch string) error {
	res, err := p.git(ctx, dir, "checkout", branch)
	if err != nil {
		return err
	}
	if res.Ok() {
		return nil
	}
	res, err = p.git(ctx, dir, "checkout", "-b", branch, "origin/"+branch)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return fmt.Errorf("pipeline: checkout branch %q: %s", branch, res.FailureText())
	}
	return nil
}

// hasChanges reports whether the worktree has uncommitted changes.
func (p *Pipeline) hasChanges(ctx context.Context, dir string) (bool, error) {
	res, err := p.git(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, fmt.Errorf("pipeline: git status: %s", res.FailureText())
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// commitAll stages and commits everything in the worktree.
func (p *Pipeline) commitAll(ctx context.Context, dir, message string) error {
	res, err := p.git(ctx, dir, "add", "-A")
	if err != nil {
		return err
	}
	if !res.Ok() {
		return fmt.Errorf("pipeline: git add: %s", res.FailureText())
	}
	res, err = p.git(ctx, dir, "commit", "-m", message)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return fmt.Errorf("pipeline: git commit: %s", res.FailureText())
	}
	return nil
}

// pushBranch pushes branch to origin.
func (p *Pipeline) pushBranch(ctx context.Context, dir, branch string) error {
	res, err := p.git(ctx, dir, "push", "-u", "origin", branch)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return fmt.Errorf("pipeline: push branch %q: %s", branch, res.FailureText())
	}
	return nil
}

// git runs one git command through the injected runner.
func (p *Pipeline) git(ctx context.Context, dir string, args ...string) (Result, error) {
	return p.runner.Run(ctx, Spec{
		Name:    p.opts.GitBinary,
		Args:    args,
		Dir:     dir,
		Timeout: p.opts.ToolTimeout,
	})
}
