package companion

import (
	"context"

	"github.com/rs/zerolog"
)

type fallbackChain struct {
	primary  Responder
	fallback Responder
	log      zerolog.Logger
}

// WithFallback answers through primary and, when it fails, through fallback.
func WithFallback(primary, fallback Responder, logger zerolog.Logger) Responder {
	return &fallbackChain{primary: primary, fallback: fallback, log: logger}
}

func (c *fallbackChain) Reply(ctx context.Context, userID, message string) (string, error) {
	reply, err := c.primary.Reply(ctx, userID, message)
	if err == nil {
		return reply, nil
	}

	c.log.Warn().Err(err).Str("user", userID).Msg("primary responder failed, using fallback")
	return c.fallback.Reply(ctx, userID, message)
}
