package columns

import (
	"errors"
	"testing"
	"time"
)

func TestCache_LoadsOncePerTTL(t *testing.T) {
	loads := 0
	cache := NewCache(func(projectID string) ([]ColumnInfo, error) {
		loads++
		return cols("Backlog", "Doing", "Done"), nil
	}, time.Minute)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.Now = func() time.Time { return now }

	for range 3 {
		roles, avail, err := cache.Roles("proj-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !avail {
			t.Fatal("expected available")
		}
		if roles.BacklogID != "c1" {
			t.Errorf("backlog = %s, want c1", roles.BacklogID)
		}
	}
	if loads != 1 {
		t.Errorf("loads = %d, want 1", loads)
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	loads := 0
	cache := NewCache(func(projectID string) ([]ColumnInfo, error) {
		loads++
		return cols("Backlog", "Doing", "Done"), nil
	}, time.Minute)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.Now = func() time.Time { return now }

	cache.Roles("proj-1")
	now = now.Add(61 * time.Second)
	cache.Roles("proj-1")

	if loads != 2 {
		t.Errorf("loads = %d, want 2", loads)
	}
}

func TestCache_Invalidate(t *testing.T) {
	loads := 0
	cache := NewCache(func(projectID string) ([]ColumnInfo, error) {
		loads++
		return cols("Backlog", "Doing", "Done"), nil
	}, time.Minute)

	cache.Roles("proj-1")
	cache.Invalidate("proj-1")
	cache.Roles("proj-1")

	if loads != 2 {
		t.Errorf("loads = %d, want 2", loads)
	}
}

func TestCache_CachesUnavailable(t *testing.T) {
	loads := 0
	cache := NewCache(func(projectID string) ([]ColumnInfo, error) {
		loads++
		return nil, nil
	}, time.Minute)

	for range 2 {
		_, avail, err := cache.Roles("proj-empty")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if avail {
			t.Error("expected unavailable")
		}
	}
	// Unavailability is cached too; an empty board should not be re-queried
	// every cycle.
	if loads != 1 {
		t.Errorf("loads = %d, want 1", loads)
	}
}

func TestCache_LoaderErrorNotCached(t *testing.T) {
	loads := 0
	cache := NewCache(func(projectID string) ([]ColumnInfo, error) {
		loads++
		if loads == 1 {
			return nil, errors.New("store unreachable")
		}
		return cols("Backlog", "Doing", "Done"), nil
	}, time.Minute)

	if _, _, err := cache.Roles("proj-1"); err == nil {
		t.Fatal("expected error")
	}
	_, avail, err := cache.Roles("proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !avail {
		t.Error("expected available after successful reload")
	}
}

func TestCache_KeyedByProject(t *testing.T) {
	cache := NewCache(func(projectID string) ([]ColumnInfo, error) {
		if projectID == "proj-a" {
			return cols("Backlog", "Doing", "Done"), nil
		}
		return nil, nil
	}, time.Minute)

	_, availA, _ := cache.Roles("proj-a")
	_, availB, _ := cache.Roles("proj-b")
	if !availA {
		t.Error("proj-a should be available")
	}
	if availB {
		t.Error("proj-b should be unavailable")
	}
}
