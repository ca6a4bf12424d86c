package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/capirelay/internal/config"
	"github.com/leshachaplin/capirelay/internal/conversions"
)

func TestNewZeroLogger(t *testing.T) {
	cases := map[string]struct {
		logLevel string
		logDebug bool
	}{
		"debug enabled":    {logLevel: "DEBUG", logDebug: true},
		"info hides debug": {logLevel: "info", logDebug: false},
	}

	for name, tc := range cases {
		tt := tc
		t.Run(name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := newZeroLogger(buf, config.Config{
				LogLevel: tt.logLevel,
				Conversions: conversions.Config{
					PixelID:     "pixel123",
					APIVersion:  "v19.0",
					AccessToken: "token456",
				},
			})

			logger.Debug().Msg("debug line")
			logger.Info().Msg("info line")

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			if tt.logDebug {
				require.Len(t, lines, 2)
			} else {
				require.Len(t, lines, 1)
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
			require.Equal(t, "info line", entry["message"])
			require.Equal(t, "capirelay", entry["service"])
			require.Equal(t, "pixel123", entry["pixel_id"])
			require.Equal(t, "v19.0", entry["api_version"])
			require.Equal(t, false, entry["broker_queue"])
			require.NotContains(t, buf.String(), "token456")
		})
	}
}
