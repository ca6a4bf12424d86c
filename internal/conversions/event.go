// Package conversions formats business events for the conversions API and sends them.
package conversions

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"strconv"
	"time"
)

// ActionSource marks every event as originating from the app.
const ActionSource = "app"

const (
	ParamUserID          = "user_id"
	ParamEmail           = "email"
	ParamPhone           = "phone"
	ParamClientIP        = "client_ip_address"
	ParamClientUserAgent = "client_user_agent"
	ParamClickID         = "fbc"
	ParamBrowserID       = "fbp"
	ParamSourceURL       = "source_url"
)

const (
	eventIDSuffixLen = 9
	eventIDAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// identityFields maps params keys to user_data keys.
var identityFields = []struct {
	param string
	field string
}{
	{param: ParamUserID, field: "external_id"},
	{param: ParamEmail, field: "em"},
	{param: ParamPhone, field: "ph"},
	{param: ParamClientIP, field: "client_ip_address"},
	{param: ParamClientUserAgent, field: "client_user_agent"},
	{param: ParamClickID, field: "fbc"},
	{param: ParamBrowserID, field: "fbp"},
}

type Event struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	ActionSource   string         `json:"action_source"`
	UserData       map[string]any `json:"user_data"`
	CustomData     map[string]any `json:"custom_data"`
}

// Format builds the event record sent to the conversions API.
//
// Identity keys and source_url are moved out of params into UserData and EventSourceURL;
// everything else becomes CustomData untouched. Email and phone are expected to be hashed
// already (see privacy.Hash). When eventID is empty a deduplication id is generated.
// params is never modified.
func Format(eventName string, params map[string]any, eventID string) (Event, error) {
	return format(time.Now(), eventName, params, eventID)
}

func format(now time.Time, eventName string, params map[string]any, eventID string) (Event, error) {
	if eventName == "" {
		return Event{}, newError(KindInvalidArgument, "event name is empty", nil)
	}

	if eventID == "" {
		eventID = newEventID(now)
	}

	event := Event{
		EventName:    eventName,
		EventTime:    now.Unix(),
		EventID:      eventID,
		ActionSource: ActionSource,
		UserData:     make(map[string]any),
		CustomData:   make(map[string]any, len(params)),
	}

	for k, v := range params {
		event.CustomData[k] = v
	}

	for _, f := range identityFields {
		v, ok := event.CustomData[f.param]
		if !ok {
			continue
		}
		delete(event.CustomData, f.param)
		if truthy(v) {
			event.UserData[f.field] = v
		}
	}

	if v, ok := event.CustomData[ParamSourceURL]; ok {
		delete(event.CustomData, ParamSourceURL)
		if truthy(v) {
			event.EventSourceURL = fmt.Sprint(v)
		}
	}

	return event, nil
}

// NewEventID returns a deduplication id made of the current unix milliseconds and a random
// alphanumeric suffix. It is unique per process with overwhelming probability.
func NewEventID() string {
	return newEventID(time.Now())
}

func newEventID(now time.Time) string {
	suffix := make([]byte, eventIDSuffixLen)
	for i := range suffix {
		suffix[i] = eventIDAlphabet[rand.Intn(len(eventIDAlphabet))]
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}

// truthy reports whether v carries a value worth sending: nil, empty strings, false,
// numeric zero and NaN are treated as absent, json.Number included.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t != ""
		}
		return f != 0 && !math.IsNaN(f)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}
