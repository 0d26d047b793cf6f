package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/expenso/expenso/internal/auth"
)

// fakeStore is an in-memory Store for handler and service tests
type fakeStore struct {
	users  map[int64]*User
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*User), nextID: 1}
}

func (f *fakeStore) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	u := &User{ID: f.nextID, Username: username, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	f.nextID++
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*User, error) {
	return f.users[id], nil
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) List(ctx context.Context) ([]*User, error) {
	var users []*User
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	// Mirrors the repository contract: the unique email constraint surfaces
	// as ErrEmailAlreadyInUse.
	if req.Email != nil {
		for otherID, other := range f.users {
			if otherID != id && other.Email == *req.Email {
				return nil, ErrEmailAlreadyInUse
			}
		}
		u.Email = *req.Email
	}
	if req.Username != nil {
		u.Username = *req.Username
	}
	return u, nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func newTestHandler(store *fakeStore) *Handler {
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	return NewHandler(NewService(store, jwt))
}

func TestUpdateDuplicateEmailConflicts(t *testing.T) {
	store := newFakeStore()
	store.Create(context.Background(), "alice", "a@x.com", "hash")
	store.Create(context.Background(), "bob", "b@x.com", "hash")

	h := newTestHandler(store)
	r := chi.NewRouter()
	r.Put("/{id}", h.Update)

	req := httptest.NewRequest(http.MethodPut, "/2", strings.NewReader(`{"email":"a@x.com"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate email update: status = %d, want %d", rr.Code, http.StatusConflict)
	}

	if store.users[2].Email != "b@x.com" {
		t.Errorf("email = %q, should be unchanged after the conflict", store.users[2].Email)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	h := newTestHandler(newFakeStore())
	r := chi.NewRouter()
	r.Put("/{id}", h.Update)

	req := httptest.NewRequest(http.MethodPut, "/99", strings.NewReader(`{"username":"ghost"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("missing user update: status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}
