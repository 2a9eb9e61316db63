package columns

import "testing"

func cols(names ...string) []ColumnInfo {
	out := make([]ColumnInfo, len(names))
	for i, n := range names {
		out[i] = ColumnInfo{ID: "c" + string(rune('1'+i)), Name: n, Position: i}
	}
	return out
}

func TestClassify_PatternMatches(t *testing.T) {
	tests := []struct {
		name  string
		cols  []ColumnInfo
		want  Roles
		avail bool
	}{
		{
			name:  "standard board",
			cols:  cols("Backlog", "Doing", "Done"),
			want:  Roles{BacklogID: "c1", InProgressID: "c2", ResolvedID: "c3"},
			avail: true,
		},
		{
			name:  "case insensitive",
			cols:  cols("BACKLOG", "IN PROGRESS", "DONE"),
			want:  Roles{BacklogID: "c1", InProgressID: "c2", ResolvedID: "c3"},
			avail: true,
		},
		{
			name:  "substring match",
			cols:  cols("Sprint Backlog", "Work In Progress", "Completed Items"),
			want:  Roles{BacklogID: "c1", InProgressID: "c2", ResolvedID: "c3"},
			avail: true,
		},
		{
			name:  "to-do and wip variants",
			cols:  cols("To-Do", "WIP", "Finished"),
			want:  Roles{BacklogID: "c1", InProgressID: "c2", ResolvedID: "c3"},
			avail: true,
		},
		{
			name:  "shuffled columns",
			cols:  cols("Done", "Backlog", "Doing"),
			want:  Roles{BacklogID: "c2", InProgressID: "c3", ResolvedID: "c1"},
			avail: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, avail := Classify(tt.cols)
			if avail != tt.avail {
				t.Fatalf("available = %v, want %v", avail, tt.avail)
			}
			if got != tt.want {
				t.Errorf("roles = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassify_PositionalFallback(t *testing.T) {
	// None of the names match a pattern; pure positional assignment.
	got, avail := Classify(cols("Ideas", "Cooking", "Shipped"))
	if !avail {
		t.Fatal("expected available")
	}
	want := Roles{BacklogID: "c1", InProgressID: "c2", ResolvedID: "c3"}
	if got != want {
		t.Errorf("roles = %+v, want %+v", got, want)
	}
}

func TestClassify_PartialFallback(t *testing.T) {
	// Only the resolved column matches; backlog and in-progress fall back
	// to position.
	got, avail := Classify(cols("Queue", "Active", "Done"))
	if !avail {
		t.Fatal("expected available")
	}
	want := Roles{BacklogID: "c1", InProgressID: "c2", ResolvedID: "c3"}
	if got != want {
		t.Errorf("roles = %+v, want %+v", got, want)
	}
}

func TestClassify_FirstMatchWinsPerRole(t *testing.T) {
	// Two backlog-like names: the earlier position wins, the other stays
	// free for fallback.
	got, avail := Classify(cols("Todo", "Todo Later", "Done"))
	if !avail {
		t.Fatal("expected available")
	}
	if got.BacklogID != "c1" {
		t.Errorf("backlog = %s, want c1", got.BacklogID)
	}
	// "Todo Later" is unassigned by patterns; middle fallback takes it.
	if got.InProgressID != "c2" {
		t.Errorf("in-progress = %s, want c2", got.InProgressID)
	}
}

func TestClassify_ColumnNotReconsidered(t *testing.T) {
	// "Todo Done" matches backlog first, so resolved must come from the
	// remaining columns.
	got, avail := Classify(cols("Todo Done", "Doing", "Complete"))
	if !avail {
		t.Fatal("expected available")
	}
	if got.BacklogID != "c1" || got.ResolvedID != "c3" {
		t.Errorf("roles = %+v, want backlog c1 and resolved c3", got)
	}
}

func TestClassify_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		cols []ColumnInfo
	}{
		{"no columns", nil},
		{"single column cannot host all roles", cols("Everything")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, avail := Classify(tt.cols); avail {
				t.Error("expected unavailable")
			}
		})
	}
}

func TestClassify_TwoColumns(t *testing.T) {
	got, avail := Classify(cols("Todo", "Done"))
	if !avail {
		t.Fatal("expected available")
	}
	if got.BacklogID != "c1" || got.ResolvedID != "c2" {
		t.Errorf("roles = %+v", got)
	}
	// Middle by index of two columns is the second.
	if got.InProgressID != "c2" {
		t.Errorf("in-progress = %s, want c2", got.InProgressID)
	}
}

func TestClassify_RespectsPositionOrder(t *testing.T) {
	input := []ColumnInfo{
		{ID: "x", Name: "Shipped", Position: 2},
		{ID: "y", Name: "Ideas", Position: 0},
		{ID: "z", Name: "Cooking", Position: 1},
	}
	got, avail := Classify(input)
	if !avail {
		t.Fatal("expected available")
	}
	want := Roles{BacklogID: "y", InProgressID: "z", ResolvedID: "x"}
	if got != want {
		t.Errorf("roles = %+v, want %+v", got, want)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	input := cols("Backlog", "Doing", "Done")
	first, _ := Classify(input)
	second, _ := Classify(input)
	if first != second {
		t.Errorf("two runs differ: %+v vs %+v", first, second)
	}
}
