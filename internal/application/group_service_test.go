package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/attendance-tracker/internal/persistence"
)

func TestGroupService_CreateGroup(t *testing.T) {
	t.Run("validates required attributes", func(t *testing.T) {
		svc := NewGroupService(&groupRepoStub{})

		_, err := svc.CreateGroup(context.Background(), GroupInput{Name: "   "})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["name"]; !ok {
			t.Fatalf("expected name validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects negative display order", func(t *testing.T) {
		svc := NewGroupService(&groupRepoStub{})

		_, err := svc.CreateGroup(context.Background(), GroupInput{Name: "開発部", Order: int64Ptr(-1)})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["order"]; !ok {
			t.Fatalf("expected order validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("persists trimmed name", func(t *testing.T) {
		repo := &groupRepoStub{}
		svc := NewGroupService(repo)

		group, err := svc.CreateGroup(context.Background(), GroupInput{Name: "  開発部  "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if group.Name != "開発部" {
			t.Fatalf("name = %q", group.Name)
		}
		if group.ID == 0 {
			t.Fatal("expected assigned ID")
		}
	})

	t.Run("maps duplicate names", func(t *testing.T) {
		svc := NewGroupService(&groupRepoStub{err: persistence.ErrDuplicate})

		_, err := svc.CreateGroup(context.Background(), GroupInput{Name: "開発部"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestGroupService_DeleteGroup(t *testing.T) {
	t.Run("refuses groups with members", func(t *testing.T) {
		svc := NewGroupService(&groupRepoStub{userCount: 3})

		err := svc.DeleteGroup(context.Background(), 1)

		var inUse *InUseError
		if !errors.As(err, &inUse) {
			t.Fatalf("expected InUseError, got %v", err)
		}
		if inUse.Count != 3 {
			t.Fatalf("count = %d", inUse.Count)
		}
	})

	t.Run("deletes empty groups", func(t *testing.T) {
		repo := &groupRepoStub{}
		svc := NewGroupService(repo)

		if err := svc.DeleteGroup(context.Background(), 7); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.deletedID != 7 {
			t.Fatalf("deletedID = %d", repo.deletedID)
		}
	})
}

func TestGroupService_UpdateGroup(t *testing.T) {
	repo := &groupRepoStub{groups: []persistence.Group{{ID: 1, Name: "開発部"}}}
	svc := NewGroupService(repo)

	group, err := svc.UpdateGroup(context.Background(), 1, GroupInput{Name: "開発一部", Order: int64Ptr(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if group.Name != "開発一部" || group.Order == nil || *group.Order != 2 {
		t.Fatalf("updated group = %+v", group)
	}

	if _, err := svc.UpdateGroup(context.Background(), 99, GroupInput{Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
