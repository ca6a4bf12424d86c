package http

import (
	"net/http"

	"github.com/leshachaplin/capirelay/internal/privacy"
)

func (i *IntegrationTestSuite) TestConversions_Track() {
	res, err := i.client.Track(i.ctx, conversionReq{
		EventName: "Purchase",
		Params: map[string]any{
			"user_id":  "u1",
			"email":    "User@Example.com ",
			"amount":   9.99,
			"currency": "USD",
		},
	})
	i.Require().NoError(err)
	i.Require().Equal(http.StatusAccepted, res.StatusCode)
	eventID, _ := res.Body["event_id"].(string)
	i.Require().NotEmpty(eventID)

	call := i.nextCall()
	i.Equal("/v19.0/"+pixelID+"/events", call.path)
	i.Equal(accessToken, call.body["access_token"])

	data := call.body["data"].([]any)
	i.Require().Len(data, 1)
	event := data[0].(map[string]any)
	i.Equal("Purchase", event["event_name"])
	i.Equal(eventID, event["event_id"])
	i.Equal("app", event["action_source"])

	userData := event["user_data"].(map[string]any)
	i.Equal("u1", userData["external_id"])
	i.Equal(privacy.Hash("user@example.com"), userData["em"])
	i.Equal("127.0.0.1", userData["client_ip_address"])
	i.Equal("capirelay-tests", userData["client_user_agent"])
	i.Equal(map[string]any{"amount": 9.99, "currency": "USD"}, event["custom_data"])
}

func (i *IntegrationTestSuite) TestConversions_Send() {
	cases := map[string]struct {
		req            conversionReq
		expectedStatus int
		expectedBody   map[string]any
	}{
		"ok": {
			req: conversionReq{
				EventName: "ScanCompleted",
				EventID:   "scan-1",
				Params:    map[string]any{"user_id": "u2", "source_url": "https://app.example.com/scan"},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   map[string]any{"events_received": float64(1), "fbtrace_id": "trace-1"},
		},
		"remote api rejects": {
			req:            conversionReq{EventName: "Reject", EventID: "reject-1"},
			expectedStatus: http.StatusBadGateway,
		},
		"missing event name": {
			req:            conversionReq{Params: map[string]any{"user_id": "u2"}},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for name, tc := range cases {
		tt := tc
		i.Run(name, func() {
			res, err := i.client.Send(i.ctx, tt.req)
			i.Require().NoError(err)
			i.Require().Equal(tt.expectedStatus, res.StatusCode)
			if tt.expectedBody != nil {
				i.Equal(tt.expectedBody, res.Body)
			}
			if tt.expectedStatus == http.StatusBadRequest {
				return
			}

			call := i.nextCall()
			event := call.body["data"].([]any)[0].(map[string]any)
			i.Equal(tt.req.EventID, event["event_id"])
		})
	}
}
