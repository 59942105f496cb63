package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/persistence"
)

type groupServiceStub struct {
	createInput application.GroupInput
	updateID    int64
	deleteID    int64

	group  persistence.Group
	groups []persistence.Group
	err    error
}

func (s *groupServiceStub) CreateGroup(ctx context.Context, input application.GroupInput) (persistence.Group, error) {
	s.createInput = input
	return s.group, s.err
}

func (s *groupServiceStub) ListGroups(ctx context.Context) ([]persistence.Group, error) {
	return s.groups, s.err
}

func (s *groupServiceStub) UpdateGroup(ctx context.Context, id int64, input application.GroupInput) (persistence.Group, error) {
	s.updateID = id
	return s.group, s.err
}

func (s *groupServiceStub) DeleteGroup(ctx context.Context, id int64) error {
	s.deleteID = id
	return s.err
}

func groupRouter(stub *groupServiceStub) http.Handler {
	return NewRouter(RouterConfig{Groups: NewGroupHandler(stub, nil)})
}

func TestGroupHandler_Create(t *testing.T) {
	t.Parallel()

	order := int64(2)
	stub := &groupServiceStub{group: persistence.Group{ID: 4, Name: "開発部", Order: &order}}
	router := groupRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/groups", strings.NewReader(`{"name":"開発部","order":2}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", recorder.Code, http.StatusCreated, recorder.Body.String())
	}
	if stub.createInput.Name != "開発部" || stub.createInput.Order == nil || *stub.createInput.Order != 2 {
		t.Fatalf("input = %+v", stub.createInput)
	}

	var resp groupResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Group.ID != 4 || resp.Group.Name != "開発部" {
		t.Fatalf("group = %+v", resp.Group)
	}
}

func TestGroupHandler_CreateValidationError(t *testing.T) {
	t.Parallel()

	stub := &groupServiceStub{err: &application.ValidationError{FieldErrors: map[string]string{"name": "name is required"}}}
	router := groupRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/groups", strings.NewReader(`{"name":""}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusUnprocessableEntity)
	}

	var resp struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Errors["name"] != "名前は必須です。" {
		t.Fatalf("errors[name] = %q", resp.Errors["name"])
	}
}

func TestGroupHandler_CreateDuplicate(t *testing.T) {
	t.Parallel()

	stub := &groupServiceStub{err: application.ErrAlreadyExists}
	router := groupRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/groups", strings.NewReader(`{"name":"開発部"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
	if !strings.Contains(recorder.Body.String(), "ALREADY_EXISTS") {
		t.Fatalf("body = %q", recorder.Body.String())
	}
}

func TestGroupHandler_DeleteInUse(t *testing.T) {
	t.Parallel()

	stub := &groupServiceStub{err: &application.InUseError{Resource: "グループ", Count: 3}}
	router := groupRouter(stub)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/api/groups/4", nil))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
	if stub.deleteID != 4 {
		t.Fatalf("deleteID = %d, want 4", stub.deleteID)
	}
	if !strings.Contains(recorder.Body.String(), "グループは使用中のため削除できません。") {
		t.Fatalf("body = %q", recorder.Body.String())
	}
}

func TestGroupHandler_UpdateNotFound(t *testing.T) {
	t.Parallel()

	stub := &groupServiceStub{err: application.ErrNotFound}
	router := groupRouter(stub)

	req := httptest.NewRequest(http.MethodPut, "/api/groups/99", strings.NewReader(`{"name":"総務部"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}
	if stub.updateID != 99 {
		t.Fatalf("updateID = %d, want 99", stub.updateID)
	}
}

func TestGroupHandler_List(t *testing.T) {
	t.Parallel()

	stub := &groupServiceStub{groups: []persistence.Group{{ID: 1, Name: "営業部"}, {ID: 2, Name: "開発部"}}}
	router := groupRouter(stub)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/groups", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}

	var resp groupListResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Groups) != 2 || resp.Groups[0].Name != "営業部" {
		t.Fatalf("groups = %+v", resp.Groups)
	}
}
