package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"studioku_backend/internals/configs"
	authRepo "studioku_backend/internals/features/users/auth/repository"
	helperAuth "studioku_backend/internals/helpers/auth"
)

// StartTokenCleanupScheduler purges expired blacklist entries and stale
// refresh tokens once at start and then every interval, until ctx is done.
func StartTokenCleanupScheduler(ctx context.Context, db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	retention := time.Duration(configs.GetEnvInt("TOKEN_BLACKLIST_TTL_DAYS", 7)) * 24 * time.Hour

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			runCleanup(ctx, db, retention)
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
}

func runCleanup(ctx context.Context, db *gorm.DB, retention time.Duration) {
	now := time.Now().UTC()

	n, err := helperAuth.PurgeExpired(ctx, db, now)
	if err != nil {
		log.Error().Err(err).Msg("[cleanup] token_blacklist purge failed")
	} else if n > 0 {
		log.Info().Int64("rows", n).Msg("[cleanup] token_blacklist purged")
	}

	n, err = authRepo.PurgeRefreshTokens(ctx, db, now.Add(-retention))
	if err != nil {
		log.Error().Err(err).Msg("[cleanup] refresh_tokens purge failed")
	} else if n > 0 {
		log.Info().Int64("rows", n).Msg("[cleanup] refresh_tokens purged")
	}
}
