// internal/api/courts/handlers.go
package courts

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jkoster/courtbook/internal/api/apiutil"
	"github.com/jkoster/courtbook/internal/booking"
	appdb "github.com/jkoster/courtbook/internal/db"
)

var (
	service     *booking.Service
	store       *appdb.DB
	serviceOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service, database *appdb.DB) {
	if svc == nil || database == nil {
		log.Warn().Msg("courts.InitHandlers called with nil dependencies")
		return
	}
	serviceOnce.Do(func() {
		service = svc
		store = database
	})
}

type courtPayload struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	CourtType      string  `json:"court_type"`
	HourlyBaseRate float64 `json:"hourly_base_rate"`
	Status         string  `json:"status"`
}

// GET /api/v1/courts
func HandleList(w http.ResponseWriter, r *http.Request) {
	courts, err := store.Queries.ListCourts(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	payload := make([]courtPayload, 0, len(courts))
	for _, c := range courts {
		payload = append(payload, courtPayload{
			ID:             c.ID,
			Name:           c.Name,
			CourtType:      c.CourtType,
			HourlyBaseRate: c.HourlyBaseRate,
			Status:         c.Status,
		})
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, payload)
}

type availabilityRequest struct {
	CourtID   int64                   `json:"court_id"`
	CoachID   *int64                  `json:"coach_id,omitempty"`
	Equipment []booking.EquipmentLine `json:"equipment,omitempty"`
	StartTime time.Time               `json:"start_time"`
	EndTime   time.Time               `json:"end_time"`
}

// POST /api/v1/availability
func HandleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := apiutil.RequireIdentity(w, r)
	if !ok {
		return
	}

	var req availabilityRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if req.CourtID <= 0 {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "court_id is required"})
		return
	}

	result, err := service.CheckAvailability(r.Context(), booking.AvailabilityRequest{
		CourtID:       req.CourtID,
		CoachID:       req.CoachID,
		Equipment:     req.Equipment,
		Start:         req.StartTime,
		End:           req.EndTime,
		ExcludeUserID: id.UserID,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, result)
}

// GET /api/v1/courts/{id}/slots?date=2006-01-02
func HandleSlots(w http.ResponseWriter, r *http.Request) {
	courtID, err := pathID(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid court id"})
		return
	}
	day, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.UTC)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "date must be in YYYY-MM-DD format"})
		return
	}

	slots, err := service.AvailableSlots(r.Context(), courtID, day)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, slots)
}

type quoteRequest struct {
	CourtID   int64                   `json:"court_id"`
	CoachID   *int64                  `json:"coach_id,omitempty"`
	Equipment []booking.EquipmentLine `json:"equipment,omitempty"`
	StartTime time.Time               `json:"start_time"`
	EndTime   time.Time               `json:"end_time"`
}

// POST /api/v1/quotes
func HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if req.CourtID <= 0 {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "court_id is required"})
		return
	}

	quote, err := service.Quote(r.Context(), booking.PriceRequest{
		CourtID:   req.CourtID,
		CoachID:   req.CoachID,
		Equipment: req.Equipment,
		Start:     req.StartTime,
		End:       req.EndTime,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, quote)
}

func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
