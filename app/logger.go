package app

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/leshachaplin/capirelay/internal/config"
)

// NewZeroLogger writes JSON lines to stdout. Every line names the pixel and API version the
// relay reports to, so logs from relays bound to different pixels can be told apart.
func NewZeroLogger(cfg config.Config) zerolog.Logger {
	return newZeroLogger(os.Stdout, cfg)
}

func newZeroLogger(w io.Writer, cfg config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	return zerolog.New(w).
		Level(cfg.ZeroLevel()).
		With().
		Timestamp().
		Caller().
		Str("service", "capirelay").
		Str("pixel_id", cfg.Conversions.PixelID).
		Str("api_version", cfg.Conversions.APIVersion).
		Bool("broker_queue", cfg.UseBrokers()).
		Logger()
}
