package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leshachaplin/capirelay/internal/conversions"
	"github.com/leshachaplin/capirelay/internal/domain"
	"github.com/leshachaplin/capirelay/internal/metrics"
	"github.com/leshachaplin/capirelay/internal/privacy"
)

// Track queues the conversion for delivery and returns its deduplication id.
func (s *Service) Track(_ context.Context, conversion domain.Conversion) (string, error) {
	if conversion.EventName == "" {
		return "", &conversions.Error{Kind: conversions.KindInvalidArgument, Message: "event name is empty"}
	}
	if conversion.EventID == "" {
		conversion.EventID = conversions.NewEventID()
	}

	if err := s.pool.Process(conversion); err != nil {
		return "", fmt.Errorf("enqueue conversion: %w", err)
	}
	metrics.ConversionsAccepted.Inc()
	return conversion.EventID, nil
}

// Deliver hashes raw identity params, formats the event and sends it in one attempt.
// The outcome is logged, counted and appended to the delivery log.
func (s *Service) Deliver(ctx context.Context, conversion domain.Conversion) (conversions.Response, error) {
	l := s.logger.With().Str("Service", "Deliver").Str("event_name", conversion.EventName).Logger()

	event, err := conversions.Format(conversion.EventName, hashIdentity(conversion.Params), conversion.EventID)
	if err != nil {
		metrics.ConversionsSent.WithLabelValues(string(conversions.KindOf(err))).Inc()
		return nil, fmt.Errorf("format conversion: %w", err)
	}

	start := time.Now()
	res, err := s.transmitter.Send(ctx, event, s.destination.ID, s.destination.AccessToken)
	metrics.SendDuration.Observe(time.Since(start).Seconds())

	d := domain.Delivery{
		EventID:       event.EventID,
		EventName:     event.EventName,
		DestinationID: s.destination.ID,
		Outcome:       domain.OutcomeOK,
		SentAt:        start,
	}
	if err != nil {
		var cErr *conversions.Error
		if errors.As(err, &cErr) {
			d.Outcome = string(cErr.Kind)
			d.StatusCode = cErr.StatusCode
		} else {
			d.Outcome = "unknown"
		}
		d.Message = err.Error()
		l.Warn().Err(err).Str("event_id", event.EventID).Str("outcome", d.Outcome).Msg("conversion was not accepted")
	} else {
		d.StatusCode = 200
		d.EventsReceived = res.EventsReceived()
		d.TraceID = res.TraceID()
		l.Debug().Str("event_id", event.EventID).Int("events_received", d.EventsReceived).Msg("conversion sent")
	}
	metrics.ConversionsSent.WithLabelValues(d.Outcome).Inc()

	if s.deliveries != nil {
		if storeErr := s.deliveries.StoreDelivery(ctx, d); storeErr != nil {
			metrics.DeliveryLogFailures.Inc()
			l.Error().Err(storeErr).Str("event_id", event.EventID).Msg("failed to store delivery")
		}
	}

	if err != nil {
		return nil, err
	}
	return res, nil
}

// hashIdentity returns a copy of params with raw email and phone replaced by their digests.
// Values that already are digests are kept as is.
func hashIdentity(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}

	for _, key := range []string{conversions.ParamEmail, conversions.ParamPhone} {
		raw, ok := identityString(out[key])
		if !ok || privacy.IsDigest(raw) {
			continue
		}
		out[key] = privacy.Hash(raw)
	}
	return out
}

func identityString(v any) (string, bool) {
	switch t := v.(type) {
	case nil, bool:
		return "", false
	case string:
		return t, t != ""
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return "", false
		}
		return t.String(), t != ""
	default:
		s := fmt.Sprint(t)
		return s, s != "0"
	}
}
