package clickhouse

import (
	"time"

	"github.com/leshachaplin/capirelay/internal/domain"
)

type delivery struct {
	SentAt         time.Time `ch:"sent_at"`
	EventID        string    `ch:"event_id"`
	EventName      string    `ch:"event_name"`
	DestinationID  string    `ch:"destination_id"`
	Outcome        string    `ch:"outcome"`
	StatusCode     int32     `ch:"status_code"`
	Message        string    `ch:"message"`
	EventsReceived int32     `ch:"events_received"`
	TraceID        string    `ch:"trace_id"`
}

func deliveryFromDomain(d domain.Delivery) delivery {
	return delivery{
		SentAt:         d.SentAt,
		EventID:        d.EventID,
		EventName:      d.EventName,
		DestinationID:  d.DestinationID,
		Outcome:        d.Outcome,
		StatusCode:     int32(d.StatusCode),
		Message:        d.Message,
		EventsReceived: int32(d.EventsReceived),
		TraceID:        d.TraceID,
	}
}
