// internal/api/reservations/handlers.go
package reservations

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jkoster/courtbook/internal/api/apiutil"
	"github.com/jkoster/courtbook/internal/booking"
)

var (
	service     *booking.Service
	serviceOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service) {
	if svc == nil {
		log.Warn().Msg("reservations.InitHandlers called with nil service")
		return
	}
	serviceOnce.Do(func() {
		service = svc
	})
}

type createRequest struct {
	CourtID   int64     `json:"court_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// POST /api/v1/reservations
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if req.CourtID <= 0 {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "court_id is required"})
		return
	}

	created, err := service.CreateReservation(r.Context(), id.UserID, req.CourtID, req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusCreated, created)
}

// POST /api/v1/reservations/{id}/extend
func HandleExtend(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}
	reservationID, err := pathID(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid reservation id"})
		return
	}

	extended, err := service.ExtendReservation(r.Context(), reservationID, id.UserID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, extended)
}

// DELETE /api/v1/reservations/{id}
func HandleRelease(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}
	reservationID, err := pathID(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid reservation id"})
		return
	}

	if err := service.ReleaseReservation(r.Context(), reservationID, id.UserID); err != nil {
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
