package apierror

import (
	"errors"
	"net/http"

	"github.com/leshachaplin/capirelay/internal/conversions"
)

type HTTPPart struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Error struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	HTTP    HTTPPart               `json:"http"`
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) StatusCode() int {
	return e.HTTP.Code
}

func NewAPIError(msg string, status int) Error {
	return Error{
		Message: msg,
		HTTP: HTTPPart{
			Code:    status,
			Message: http.StatusText(status),
		},
	}
}

// FromError converts err into an API error. Conversions errors keep their kind and, when the
// remote endpoint answered, its status under details.
func FromError(err error) Error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var cErr *conversions.Error
	if !errors.As(err, &cErr) {
		return NewAPIError(err.Error(), http.StatusInternalServerError)
	}

	apiErr = NewAPIError(cErr.Message, statusForKind(cErr.Kind))
	apiErr.Details = map[string]interface{}{
		"kind": string(cErr.Kind),
	}
	if cErr.StatusCode != 0 {
		apiErr.Details["remote_status"] = cErr.StatusCode
	}
	return apiErr
}

func statusForKind(kind conversions.Kind) int {
	switch kind {
	case conversions.KindInvalidArgument:
		return http.StatusBadRequest
	case conversions.KindConfiguration:
		return http.StatusServiceUnavailable
	case conversions.KindTransport:
		return http.StatusServiceUnavailable
	case conversions.KindRemoteAPI, conversions.KindResponseParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
