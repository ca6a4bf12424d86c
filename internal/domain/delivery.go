package domain

import "time"

const OutcomeOK = "ok"

// Delivery records the outcome of one conversions API call.
type Delivery struct {
	EventID        string
	EventName      string
	DestinationID  string
	Outcome        string
	StatusCode     int
	Message        string
	EventsReceived int
	TraceID        string
	SentAt         time.Time
}
