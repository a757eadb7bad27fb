// Package responses writes JSON bodies and is the single place where typed
// errors are mapped to HTTP status codes.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	zlog "github.com/rs/zerolog/log"
)

// ErrorBody is the public shape of every error response:
//
//	{"error": {"code": "NOT_FOUND", "message": "...", "details": {...}}}
type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// WriteSuccessStatus writes data unwrapped. Single resources and list pages
// share this path.
func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes the envelope for err. Anything that is not a
// *pkgerrors.Error is reported as INTERNAL_ERROR with the generic message.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("nil error written")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	body := ErrorBody{Error: ErrorPayload{Code: string(typed.Code()), Message: meta.PublicMessage}}
	if meta.ExposeMessage && typed.Message() != "" {
		body.Error.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		body.Error.Details = typed.Details()
	}

	logError(ctx, logg, err, typed.Code(), meta.HTTPStatus)
	writeJSON(w, meta.HTTPStatus, body)
}

func logError(ctx context.Context, logg *logger.Logger, err error, code pkgerrors.Code, status int) {
	if logg == nil {
		return
	}
	fields := map[string]any{
		"error_code":  code,
		"error_chain": pkgerrors.Chain(err),
		"status":      status,
	}
	if pg, ok := pkgerrors.Postgres(err); ok {
		fields["pg"] = pg
	}
	ctx = logg.WithFields(ctx, fields)
	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already sent; the client sees a truncated body.
		zlog.Error().Err(err).Int("status", status).Msg("encode response")
	}
}
