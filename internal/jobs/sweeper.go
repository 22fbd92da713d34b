// Package jobs runs background maintenance. The only deferred work in this
// system is session hygiene: expired and long-revoked session rows pile up
// and something has to delete them.
package jobs

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

const defaultInterval = 10 * time.Minute

// Revoked rows are kept briefly so a watcher restarting mid-sweep can still
// seed them.
const revokedRetention = 24 * time.Hour

type Sweeper struct {
	DB       *gorm.DB
	Interval time.Duration
}

func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				log.Printf("session sweep error: %v\n", err)
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	res := s.DB.WithContext(ctx).Exec(`
delete from sessions
where expires_at < now()
   or (revoked_at is not null and revoked_at < now() - interval '24 hours')
`)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("swept %d stale sessions\n", res.RowsAffected)
	}
	return nil
}
