package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// workspaceDir returns the per-task clone directory. Workspaces are scoped
// by task ID so concurrent instances working different tasks never share a
// checkout.
func (p *Pipeline) workspaceDir(taskID string) string {
	return filepath.Join(p.opts.WorkspaceRoot, "task-"+taskID)
}

// removeWorkspace deletes a task's workspace. Used after success when
// cleanup is enabled; a leftover workspace is otherwise reused (and reset
// to origin) by the next attempt's cloneOrRefresh.
func (p *Pipeline) removeWorkspace(taskID string) error {
	dir := p.workspaceDir(taskID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("pipeline: remove workspace %s: %w", dir, err)
	}
	return nil
}
