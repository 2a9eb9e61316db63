// Package columns infers the semantic role of each kanban column in a
// project — backlog, in-progress, or resolved — from column names, with a
// positional fallback. The UI never stores an explicit role.
package columns

import (
	"sort"
	"strings"
)

// ColumnInfo is the (id, name, position) triple the classifier works on.
type ColumnInfo struct {
	ID       string
	Name     string
	Position int
}

// Roles maps the three semantic roles to concrete column IDs for one project.
type Roles struct {
	BacklogID    string
	InProgressID string
	ResolvedID   string
}

// Substring patterns per role, matched case-insensitively. First match in
// position order wins; a column taken by one role is not reconsidered.
var (
	backlogPatterns    = []string{"backlog", "todo", "to do", "to-do"}
	inProgressPatterns = []string{"in progress", "in-progress", "doing", "wip", "working"}
	resolvedPatterns   = []string{"done", "resolved", "complete", "completed", "finished"}
)

// Classify maps a project's columns to roles. It is a pure function of its
// input. The second return value is false when a role cannot be assigned
// even after the positional fallback; such a project is not claimable.
func Classify(cols []ColumnInfo) (Roles, bool) {
	if len(cols) == 0 {
		return Roles{}, false
	}

	sorted := make([]ColumnInfo, len(cols))
	copy(sorted, cols)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	taken := make(map[string]bool, 3)
	match := func(patterns []string) string {
		for _, c := range sorted {
			if taken[c.ID] {
				continue
			}
			name := strings.ToLower(c.Name)
			for _, p := range patterns {
				if strings.Contains(name, p) {
					taken[c.ID] = true
					return c.ID
				}
			}
		}
		return ""
	}

	roles := Roles{
		BacklogID:    match(backlogPatterns),
		InProgressID: match(inProgressPatterns),
		ResolvedID:   match(resolvedPatterns),
	}

	// Positional fallback: first column is backlog-like, last is
	// resolved-like, and the middle (by index) is in-progress when the
	// board has at least two columns.
	if roles.BacklogID == "" {
		roles.BacklogID = sorted[0].ID
	}
	if roles.ResolvedID == "" {
		roles.ResolvedID = sorted[len(sorted)-1].ID
	}
	if roles.InProgressID == "" && len(sorted) >= 2 {
		roles.InProgressID = sorted[len(sorted)/2].ID
	}

	if roles.BacklogID == "" || roles.InProgressID == "" || roles.ResolvedID == "" {
		return Roles{}, false
	}
	return roles, true
}
