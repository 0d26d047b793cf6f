package group

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/expenso/expenso/pkg/middleware"
)

func doAccept(t *testing.T, store *fakeStore, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()

	h := NewHandler(NewService(store))
	req := httptest.NewRequest(http.MethodPost, "/accept-invitation", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func TestAcceptInvitationRejectsMalformedToken(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	g, _ := svc.Create(context.Background(), 1, &CreateGroupRequest{Name: "Trip"})

	// A token that is not a UUID never reaches the store; the lookup would
	// otherwise fail against the uuid column.
	rr := doAccept(t, store, 2, `{"token":"not-a-uuid"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed token: status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = doAccept(t, store, 2, `{"token":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty token: status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	if store.membershipCount(g.ID, 2) != 0 {
		t.Error("no membership should be created from a malformed token")
	}
}

func TestAcceptInvitationWellFormedUnknownToken(t *testing.T) {
	store := newFakeStore()

	// Well-formed but unminted: passes the shape check, fails the lookup.
	rr := doAccept(t, store, 2, `{"token":"123e4567-e89b-12d3-a456-426614174000"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown token: status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAcceptInvitationHandlerHappyPath(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	g, _ := svc.Create(context.Background(), 1, &CreateGroupRequest{Name: "Trip"})
	inv, _ := svc.Invite(context.Background(), g.ID, 1, "b@x.com")

	rr := doAccept(t, store, 2, `{"token":"`+inv.Token+`"}`)
	if rr.Code != http.StatusCreated {
		t.Errorf("valid token: status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if store.membershipCount(g.ID, 2) != 1 {
		t.Error("acceptance should create the membership")
	}
}
