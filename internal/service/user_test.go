package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/joinagame/internal/apperror"
)

func newTestUserService(t *testing.T) (*UserService, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	return NewUserService(store, quietLogger()), store
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate_Success(t *testing.T) {
	svc, store := newTestUserService(t)

	u, err := svc.Create(context.Background(), CreateUserInput{
		Name:       "  Ana ",
		Phone:      "555-0100",
		SkillLevel: "intermediate",
		Profile:    map[string]string{"bio": "lefty"},
	})
	mustNoErr(t, err)

	if u.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if u.Name != "Ana" {
		t.Errorf("Name = %q, want %q", u.Name, "Ana")
	}
	if u.CreatedAt.IsZero() || !u.CreatedAt.Equal(u.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", u.CreatedAt, u.UpdatedAt)
	}
	if len(store.users) != 1 {
		t.Errorf("store has %d users, want 1", len(store.users))
	}
}

func TestUserCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"too long", strings.Repeat("a", MaxUserNameLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestUserService(t)
			_, err := svc.Create(context.Background(), CreateUserInput{Name: tt.in})
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUserCreate_UniqueIDs(t *testing.T) {
	svc, _ := newTestUserService(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		u, err := svc.Create(context.Background(), CreateUserInput{Name: "dup"})
		mustNoErr(t, err)
		if seen[u.ID] {
			t.Fatalf("duplicate ID %q", u.ID)
		}
		seen[u.ID] = true
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUserUpdate_Partial(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, CreateUserInput{
		Name:       "Ana",
		Phone:      "555",
		SkillLevel: "beginner",
		Profile:    map[string]string{"bio": "lefty", "city": "Austin"},
	})
	mustNoErr(t, err)

	later := created.UpdatedAt.Add(time.Minute)
	svc.now = func() time.Time { return later }

	updated, err := svc.Update(ctx, created.ID, UpdateUserInput{
		SkillLevel: ptr("advanced"),
		Profile:    map[string]string{"city": "Denver", "paddle": "Joola"},
	})
	mustNoErr(t, err)

	if updated.Name != "Ana" || updated.Phone != "555" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if updated.SkillLevel != "advanced" {
		t.Errorf("SkillLevel = %q, want advanced", updated.SkillLevel)
	}
	wantProfile := map[string]string{"bio": "lefty", "city": "Denver", "paddle": "Joola"}
	for k, v := range wantProfile {
		if updated.Profile[k] != v {
			t.Errorf("Profile[%q] = %q, want %q", k, updated.Profile[k], v)
		}
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, later)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt must not change on update")
	}

	stored, err := svc.GetByID(ctx, created.ID)
	mustNoErr(t, err)
	if stored.SkillLevel != "advanced" {
		t.Error("update was not persisted")
	}
}

func TestUserUpdate_DoesNotAliasProfile(t *testing.T) {
	svc, store := newTestUserService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, CreateUserInput{Name: "Ana", Profile: map[string]string{"bio": "x"}})

	before := store.users[0].Profile
	_, err := svc.Update(ctx, created.ID, UpdateUserInput{Profile: map[string]string{"bio": "y"}})
	mustNoErr(t, err)

	if before["bio"] != "x" {
		t.Error("Update() mutated the previous profile map in place")
	}
}

func TestUserUpdate_Errors(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, CreateUserInput{Name: "Ana"})

	if _, err := svc.Update(ctx, "ghost", UpdateUserInput{Phone: ptr("1")}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Update(ctx, created.ID, UpdateUserInput{Name: ptr(" ")}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update(blank name) error = %v, want ErrValidation", err)
	}
	if _, err := svc.Update(ctx, "", UpdateUserInput{}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update(no id) error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestUserList(t *testing.T) {
	svc, store := newTestUserService(t)
	ctx := context.Background()
	_, _ = svc.Create(ctx, CreateUserInput{Name: "Ana"})
	_, _ = svc.Create(ctx, CreateUserInput{Name: "Ben"})

	users, err := svc.List(ctx)
	mustNoErr(t, err)
	if len(users) != 2 || users[0].Name != "Ana" || users[1].Name != "Ben" {
		t.Errorf("List() = %+v", users)
	}

	store.failNext = true
	if _, err := svc.List(ctx); !errors.Is(err, apperror.ErrStorage) {
		t.Errorf("List() error = %v, want ErrStorage", err)
	}
}
