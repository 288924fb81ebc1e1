// internal/api/bookings/handlers.go
package bookings

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
		log.Warn().Msg("bookings.InitHandlers called with nil service")
		return
	}
	serviceOnce.Do(func() {
		service = svc
	})
}

type createRequest struct {
	CourtID   int64                   `json:"court_id"`
	CoachID   *int64                  `json:"coach_id,omitempty"`
	Equipment []booking.EquipmentLine `json:"equipment,omitempty"`
	StartTime time.Time               `json:"start_time"`
	EndTime   time.Time               `json:"end_time"`
	Notes     string                  `json:"notes,omitempty"`
	Phone     string                  `json:"phone,omitempty"`
}

// POST /api/v1/bookings
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

	created, err := service.CreateBooking(r.Context(), id.UserID, booking.CreateBookingParams{
		CourtID:   req.CourtID,
		CoachID:   req.CoachID,
		Equipment: req.Equipment,
		Start:     req.StartTime,
		End:       req.EndTime,
		Notes:     req.Notes,
		Phone:     req.Phone,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusCreated, created)
}

// GET /api/v1/bookings/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid booking id"})
		return
	}

	found, err := service.GetBooking(r.Context(), bookingID, id.UserID, id.IsAdmin())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, found)
}

// GET /api/v1/bookings?status=&from=&to=
func HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}

	filter := booking.ListBookingsFilter{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "from must be RFC 3339"})
			return
		}
		filter.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "to must be RFC 3339"})
			return
		}
		filter.To = &to
	}

	bookings, err := service.ListUserBookings(r.Context(), id.UserID, filter)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, bookings)
}

type updateRequest struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	Version   *int64     `json:"version,omitempty"`
}

// PATCH /api/v1/bookings/{id}
func HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid booking id"})
		return
	}

	var req updateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}

	updated, err := service.UpdateBooking(r.Context(), bookingID, id.UserID, booking.UpdateBookingParams{
		Start:   req.StartTime,
		End:     req.EndTime,
		Notes:   req.Notes,
		Version: req.Version,
	}, id.IsAdmin())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, updated)
}

// DELETE /api/v1/bookings/{id}
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid booking id"})
		return
	}

	cancelled, err := service.CancelBooking(r.Context(), bookingID, id.UserID, id.IsAdmin())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, cancelled)
}

func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
