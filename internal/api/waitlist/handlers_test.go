// internal/api/waitlist/handlers_test.go
package waitlist

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jkoster/courtbook/internal/api/authz"
	"github.com/jkoster/courtbook/internal/booking"
	"github.com/jkoster/courtbook/internal/testutil"
)

func setupHandlers(t *testing.T) (userID, courtID int64) {
	t.Helper()

	store := testutil.NewTestDB(t)
	svc := booking.NewService(store, &testutil.FakeSender{}, zerolog.Nop())

	service = svc // bypass the once guard so each test gets a fresh store

	userID = testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtID = testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")
	return userID, courtID
}

func newRequest(t *testing.T, method, target string, id *authz.Identity, payload any) *http.Request {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, target, body)
	if id != nil {
		req = req.WithContext(authz.ContextWithIdentity(req.Context(), id))
	}
	return req
}

func slotPayload(courtID int64) map[string]any {
	return map[string]any{
		"court_id":   courtID,
		"date":       "2026-09-07",
		"start_time": "10:00",
		"end_time":   "11:00",
	}
}

func TestHandleNotifyNext(t *testing.T) {
	userID, courtID := setupHandlers(t)

	join := newRequest(t, http.MethodPost, "/api/v1/waitlist", &authz.Identity{UserID: userID}, slotPayload(courtID))
	rec := httptest.NewRecorder()
	HandleJoin(rec, join)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 joining waitlist, got %d: %s", rec.Code, rec.Body.String())
	}

	admin := &authz.Identity{UserID: 999, Role: authz.RoleAdmin}
	req := newRequest(t, http.MethodPost, "/api/v1/waitlist/notify-next", admin, slotPayload(courtID))
	rec = httptest.NewRecorder()
	HandleNotifyNext(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var entry booking.WaitlistEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if entry.Status != "notified" {
		t.Errorf("expected notified status, got %q", entry.Status)
	}
	if entry.Position != 1 {
		t.Errorf("expected position 1, got %d", entry.Position)
	}
}

func TestHandleNotifyNextRequiresAdmin(t *testing.T) {
	userID, courtID := setupHandlers(t)

	req := newRequest(t, http.MethodPost, "/api/v1/waitlist/notify-next", &authz.Identity{UserID: userID}, slotPayload(courtID))
	rec := httptest.NewRecorder()
	HandleNotifyNext(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleNotifyNextEmptyQueue(t *testing.T) {
	_, courtID := setupHandlers(t)

	admin := &authz.Identity{UserID: 999, Role: authz.RoleAdmin}
	req := newRequest(t, http.MethodPost, "/api/v1/waitlist/notify-next", admin, slotPayload(courtID))
	rec := httptest.NewRecorder()
	HandleNotifyNext(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rec.Code, rec.Body.String())
	}
}
