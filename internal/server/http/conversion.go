package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/leshachaplin/capirelay/internal/apierror"
	"github.com/leshachaplin/capirelay/internal/domain"
)

const maxBodySize = 1 << 20

type conversionReq struct {
	EventName string         `json:"event_name"`
	EventID   string         `json:"event_id"`
	Params    map[string]any `json:"params"`
}

type trackResp struct {
	EventID string `json:"event_id"`
}

// Track accepts a conversion for asynchronous delivery.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	conversion, err := decodeConversion(r)
	if err != nil {
		h.error(err, w, r)
		return
	}

	eventID, err := h.conversions.Track(r.Context(), conversion)
	if err != nil {
		h.error(err, w, r)
		return
	}

	if err = encodeJSONResponse(w, http.StatusAccepted, trackResp{EventID: eventID}); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// Send delivers a conversion synchronously and returns the conversions API response.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	conversion, err := decodeConversion(r)
	if err != nil {
		h.error(err, w, r)
		return
	}

	res, err := h.conversions.Deliver(r.Context(), conversion)
	if err != nil {
		h.error(err, w, r)
		return
	}

	if err = encodeJSONResponse(w, http.StatusOK, res); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func decodeConversion(r *http.Request) (domain.Conversion, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.UseNumber()

	var req conversionReq
	if err := dec.Decode(&req); err != nil {
		return domain.Conversion{}, apierror.NewAPIError(fmt.Sprintf("decode conversion: %s", err), http.StatusBadRequest)
	}

	conversion := domain.Conversion{
		EventName: req.EventName,
		EventID:   req.EventID,
		Params:    req.Params,
	}
	conversion.EnrichWith(getClientIP(r), r.UserAgent())
	return conversion, nil
}
