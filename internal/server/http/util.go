package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func encodeJSONResponse[T any](w http.ResponseWriter, code int, data T) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if code == http.StatusNoContent {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// withRequestID propagates X-Request-ID, generating one when the caller sent none.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

func getClientIP(req *http.Request) string {
	if xoff := req.Header.Get("X-Original-Forwarded-For"); xoff != "" {
		return normalizeIP(strings.TrimSpace(xoff))
	}
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != req.Header.Get("X-Envoy-External-Address") {
			return normalizeIP(first)
		}
	}

	out, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		out = req.RemoteAddr
	}
	return normalizeIP(out)
}

func normalizeIP(out string) string {
	if ip := net.ParseIP(out); out != "" && ip != nil {
		return out
	}
	return ""
}
