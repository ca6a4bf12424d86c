package domain

import "github.com/leshachaplin/capirelay/internal/conversions"

// Conversion is a business event waiting to be reported to the conversions API.
type Conversion struct {
	EventName string         `json:"event_name"`
	EventID   string         `json:"event_id,omitempty"`
	Params    map[string]any `json:"params"`
}

// EnrichWith fills the client address and user agent from the inbound request when the
// caller has not supplied them.
func (c *Conversion) EnrichWith(clientIP, userAgent string) {
	if c.Params == nil {
		c.Params = make(map[string]any)
	}
	if _, ok := c.Params[conversions.ParamClientIP]; !ok && clientIP != "" {
		c.Params[conversions.ParamClientIP] = clientIP
	}
	if _, ok := c.Params[conversions.ParamClientUserAgent]; !ok && userAgent != "" {
		c.Params[conversions.ParamClientUserAgent] = userAgent
	}
}

// Key identifies the conversion on the queue.
func (c *Conversion) Key() string {
	return c.EventID
}
