package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/capirelay/internal/apierror"
	"github.com/leshachaplin/capirelay/internal/service"
)

type Handler struct {
	conversions service.Conversion
	logger      zerolog.Logger
}

func NewHandler(conversions service.Conversion, logger zerolog.Logger) *Handler {
	return &Handler{
		conversions: conversions,
		logger:      logger,
	}
}

func (h *Handler) error(err error, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	apiErr := apierror.FromError(err)
	if apiErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("request failed")
	}

	w.WriteHeader(apiErr.StatusCode())
	if err = json.NewEncoder(w).Encode(apiErr); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode error response")
	}
}
