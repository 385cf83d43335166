package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

func (b *Bot) withRecovery(l *zerolog.Logger, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.incError("panic")
			l.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

// allow applies the per-user message limit. A failing limiter lets the
// update through.
func (b *Bot) allow(ctx context.Context, userID int64) bool {
	if b.sessions == nil || b.config == nil || b.config.Bot.RateLimitMessages <= 0 {
		return true
	}
	window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	allowed, err := b.sessions.CheckRateLimit(ctx, userID, b.config.Bot.RateLimitMessages, window)
	if err != nil {
		return true
	}
	return allowed
}
