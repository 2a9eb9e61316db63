package claim

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fennwick/taskboard/internal/db"
	"github.com/fennwick/taskboard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedTask(t *testing.T, gdb *gorm.DB, task models.Task) {
	t.Helper()
	repoURL := "git@github.com:org/app.git"
	gdb.Create(&models.Project{ID: task.ProjectID, Name: task.ProjectID, RepoURL: &repoURL})
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if err := gdb.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
}

func getTask(t *testing.T, gdb *gorm.DB, id string) models.Task {
	t.Helper()
	var task models.Task
	if err := gdb.Where("id = ?", id).First(&task).Error; err != nil {
		t.Fatalf("get task %s: %v", id, err)
	}
	return task
}

func TestClaim_UnclaimedTask(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, models.Task{ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true})

	coord := NewCoordinator(gdb, "instance-a", time.Hour)
	ok, err := coord.Claim(context.Background(), "t1", "col-progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("claim should succeed on an unclaimed task")
	}

	task := getTask(t, gdb, "t1")
	if task.ClaimedBy != "instance-a" {
		t.Errorf("claimed_by = %q, want instance-a", task.ClaimedBy)
	}
	if task.ClaimedAt == nil {
		t.Error("claimed_at should be set")
	}
	if task.KanbanColumnID == nil || *task.KanbanColumnID != "col-progress" {
		t.Errorf("column = %v, want col-progress", task.KanbanColumnID)
	}
}

func TestClaim_MutualExclusion(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, models.Task{ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true})

	a := NewCoordinator(gdb, "instance-a", time.Hour)
	b := NewCoordinator(gdb, "instance-b", time.Hour)

	okA, err := a.Claim(context.Background(), "t1", "col-progress")
	if err != nil {
		t.Fatalf("claim a: %v", err)
	}
	okB, err := b.Claim(context.Background(), "t1", "col-progress")
	if err != nil {
		t.Fatalf("claim b: %v", err)
	}

	if !okA {
		t.Error("first claim should win")
	}
	if okB {
		t.Error("second claim within the timeout window must lose")
	}
	if got := getTask(t, gdb, "t1").ClaimedBy; got != "instance-a" {
		t.Errorf("claimed_by = %q, want instance-a", got)
	}
}

func TestClaim_StaleLeaseReclaimable(t *testing.T) {
	gdb := testDB(t)
	twoHoursAgo := time.Now().Add(-2 * time.Hour)
	seedTask(t, gdb, models.Task{
		ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true,
		ClaimedAt: &twoHoursAgo, ClaimedBy: "instance-dead",
	})

	coord := NewCoordinator(gdb, "instance-b", time.Hour)
	ok, err := coord.Claim(context.Background(), "t1", "col-progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("a lease older than the claim timeout must be reclaimable")
	}
	if got := getTask(t, gdb, "t1").ClaimedBy; got != "instance-b" {
		t.Errorf("claimed_by = %q, want instance-b", got)
	}
}

func TestClaim_LiveLeaseNotReclaimable(t *testing.T) {
	gdb := testDB(t)
	fiveMinAgo := time.Now().Add(-5 * time.Minute)
	seedTask(t, gdb, models.Task{
		ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true,
		ClaimedAt: &fiveMinAgo, ClaimedBy: "instance-a",
	})

	coord := NewCoordinator(gdb, "instance-b", time.Hour)
	ok, err := coord.Claim(context.Background(), "t1", "col-progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("a live lease must not be reclaimable")
	}
}

func TestClaim_MissingTaskIsNotAnError(t *testing.T) {
	gdb := testDB(t)
	coord := NewCoordinator(gdb, "instance-a", time.Hour)
	ok, err := coord.Claim(context.Background(), "ghost", "col-progress")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("claiming a missing task should report false")
	}
}

func TestResolve_ClearsLeaseFeedbackAndError(t *testing.T) {
	gdb := testDB(t)
	now := time.Now()
	seedTask(t, gdb, models.Task{
		ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true,
		ClaimedAt: &now, ClaimedBy: "instance-a",
		Feedback: "please fix naming", LastError: "previous failure",
		AttemptCount: 1,
	})

	coord := NewCoordinator(gdb, "instance-a", time.Hour)
	if err := coord.Resolve(context.Background(), "t1", "https://github.com/org/app/pull/7", "col-done"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := getTask(t, gdb, "t1")
	if task.ClaimedAt != nil || task.ClaimedBy != "" {
		t.Error("lease should be cleared")
	}
	if task.Feedback != "" {
		t.Errorf("feedback = %q, want empty", task.Feedback)
	}
	if task.LastError != "" {
		t.Errorf("last_error = %q, want empty", task.LastError)
	}
	if task.PRURL != "https://github.com/org/app/pull/7" {
		t.Errorf("pr_url = %q", task.PRURL)
	}
	if task.KanbanColumnID == nil || *task.KanbanColumnID != "col-done" {
		t.Errorf("column = %v, want col-done", task.KanbanColumnID)
	}
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("status = %q, want completed", task.Status)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, models.Task{ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true})

	coord := NewCoordinator(gdb, "instance-a", time.Hour)
	for range 2 {
		if err := coord.Resolve(context.Background(), "t1", "https://github.com/org/app/pull/7", "col-done"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	task := getTask(t, gdb, "t1")
	if task.PRURL != "https://github.com/org/app/pull/7" || task.Status != models.TaskStatusCompleted {
		t.Errorf("task = %+v", task)
	}
}

func TestRecordError_BouncesToBacklog(t *testing.T) {
	gdb := testDB(t)
	now := time.Now()
	seedTask(t, gdb, models.Task{
		ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true,
		ClaimedAt: &now, ClaimedBy: "instance-a", AttemptCount: 1,
	})

	coord := NewCoordinator(gdb, "instance-a", time.Hour)
	if err := coord.RecordError(context.Background(), "t1", "tool exited 1", "col-backlog"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := getTask(t, gdb, "t1")
	if task.ClaimedAt != nil || task.ClaimedBy != "" {
		t.Error("lease should be cleared")
	}
	if task.AttemptCount != 2 {
		t.Errorf("attempt_count = %d, want 2", task.AttemptCount)
	}
	if task.LastError != "tool exited 1" {
		t.Errorf("last_error = %q", task.LastError)
	}
	if task.KanbanColumnID == nil || *task.KanbanColumnID != "col-backlog" {
		t.Errorf("column = %v, want col-backlog", task.KanbanColumnID)
	}
}

func TestRecordError_TruncatesLongMessages(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, models.Task{ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true})

	coord := NewCoordinator(gdb, "instance-a", time.Hour)
	long := strings.Repeat("x", maxErrorLen+500)
	if err := coord.RecordError(context.Background(), "t1", long, "col-backlog"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(getTask(t, gdb, "t1").LastError); got != maxErrorLen {
		t.Errorf("last_error length = %d, want %d", got, maxErrorLen)
	}
}

func TestRecordFeedbackError_KeepsColumnAndFeedback(t *testing.T) {
	gdb := testDB(t)
	now := time.Now()
	col := "col-progress"
	seedTask(t, gdb, models.Task{
		ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true,
		KanbanColumnID: &col,
		ClaimedAt:      &now, ClaimedBy: "instance-a",
		PRURL: "https://github.com/org/app/pull/7", Feedback: "rename the handler",
	})

	coord := NewCoordinator(gdb, "instance-a", time.Hour)
	if err := coord.RecordFeedbackError(context.Background(), "t1", "codegen timed out"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := getTask(t, gdb, "t1")
	if task.ClaimedAt != nil || task.ClaimedBy != "" {
		t.Error("lease should be cleared")
	}
	if task.AttemptCount != 1 {
		t.Errorf("attempt_count = %d, want 1", task.AttemptCount)
	}
	if task.KanbanColumnID == nil || *task.KanbanColumnID != "col-progress" {
		t.Error("feedback failure must leave the task in its column")
	}
	if task.Feedback != "rename the handler" {
		t.Error("feedback must survive a failed rework attempt")
	}
	if !task.IsFeedbackTask() {
		t.Error("task should still be discoverable as a feedback task")
	}
}

func TestClearFeedback(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, models.Task{
		ID: "t1", ProjectID: "p1", AutoclaudeEnabled: true,
		PRURL: "https://github.com/org/app/pull/7", Feedback: "tighten the loop",
	})

	coord := NewCoordinator(gdb, "instance-a", time.Hour)
	if err := coord.ClearFeedback(context.Background(), "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := getTask(t, gdb, "t1").Feedback; got != "" {
		t.Errorf("feedback = %q, want empty", got)
	}
}
