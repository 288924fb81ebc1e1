// internal/api/waitlist/handlers.go
package waitlist

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jkoster/courtbook/internal/api/apiutil"
	"github.com/jkoster/courtbook/internal/booking"
	"github.com/jkoster/courtbook/internal/db"
)

var (
	service     *booking.Service
	serviceOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service) {
	if svc == nil {
		log.Warn().Msg("waitlist.InitHandlers called with nil service")
		return
	}
	serviceOnce.Do(func() {
		service = svc
	})
}

type joinRequest struct {
	CourtID   int64                   `json:"court_id"`
	Date      string                  `json:"date"`
	StartTime string                  `json:"start_time"`
	EndTime   string                  `json:"end_time"`
	CoachID   *int64                  `json:"coach_id,omitempty"`
	Equipment []booking.EquipmentLine `json:"equipment,omitempty"`
	Notes     string                  `json:"notes,omitempty"`
	Phone     string                  `json:"phone,omitempty"`
}

// POST /api/v1/waitlist
func HandleJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if req.CourtID <= 0 {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "court_id is required"})
		return
	}

	entry, err := service.JoinWaitlist(r.Context(), id.UserID, booking.JoinWaitlistParams{
		CourtID:   req.CourtID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		CoachID:   req.CoachID,
		Equipment: req.Equipment,
		Notes:     req.Notes,
		Phone:     req.Phone,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusCreated, entry)
}

// GET /api/v1/waitlist?status=
func HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}

	entries, err := service.ListUserWaitlist(r.Context(), id.UserID, r.URL.Query().Get("status"))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, entries)
}

type notifyNextRequest struct {
	CourtID   int64  `json:"court_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// POST /api/v1/waitlist/notify-next
func HandleNotifyNext(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}
	if !id.IsAdmin() {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusForbidden, Message: "admin role required"})
		return
	}

	var req notifyNextRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if req.CourtID <= 0 {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "court_id is required"})
		return
	}

	entry, err := service.NotifyNext(r.Context(), db.WaitlistSlot{
		CourtID:    req.CourtID,
		TargetDate: req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if entry == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "no waiting entries for this slot"})
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, entry)
}

// DELETE /api/v1/waitlist/{id}
func HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}
	entryID, err := pathID(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid waitlist entry id"})
		return
	}

	if err := service.RemoveFromWaitlist(r.Context(), entryID, id.UserID, id.IsAdmin()); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
