// internal/api/apiutil/apiutil.go
package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jkoster/courtbook/internal/api/authz"
	"github.com/jkoster/courtbook/internal/booking"
)

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

type errorPayload struct {
	Error string `json:"error"`
}

// WriteError maps a service error to an HTTP response. Internal errors are
// logged with their cause and returned as an opaque 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var handlerErr HandlerError
	if errors.As(err, &handlerErr) {
		_ = WriteJSON(w, handlerErr.Status, errorPayload{Error: handlerErr.Message})
		return
	}

	var svcErr *booking.Error
	if errors.As(err, &svcErr) {
		status := http.StatusInternalServerError
		switch svcErr.Kind {
		case booking.KindNotFound:
			status = http.StatusNotFound
		case booking.KindConflict:
			status = http.StatusConflict
		case booking.KindForbidden:
			status = http.StatusForbidden
		case booking.KindInvalid:
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
			_ = WriteJSON(w, status, errorPayload{Error: "internal server error"})
			return
		}
		_ = WriteJSON(w, status, errorPayload{Error: svcErr.Message})
		return
	}

	log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
	_ = WriteJSON(w, http.StatusInternalServerError, errorPayload{Error: "internal server error"})
}

// RequireIdentity resolves the caller or writes a 401, returning false.
func RequireIdentity(w http.ResponseWriter, r *http.Request) (*authz.Identity, bool) {
	id, err := authz.RequireIdentity(r.Context())
	if err != nil {
		_ = WriteJSON(w, http.StatusUnauthorized, errorPayload{Error: "authentication required"})
		return nil, false
	}
	return id, true
}
