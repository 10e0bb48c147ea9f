// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// TokenPurger deletes refresh tokens that expired or were revoked
// before cutoff.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron   *cron.Cron
	tokens TokenPurger
	now    func() time.Time
}

// NewScheduler creates a scheduler evaluating specs in UTC.
func NewScheduler(tokens TokenPurger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		tokens: tokens,
		now:    time.Now,
	}
}

// Start registers the jobs and starts the runner. An invalid spec is
// returned before anything runs.
func (s *Scheduler) Start(ctx context.Context, tokenPurgeSpec string) error {
	if _, err := s.cron.AddFunc(tokenPurgeSpec, func() { s.purgeTokens(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	log.WithField("token_purge", tokenPurgeSpec).Info("[CRON] scheduler started")
	return nil
}

func (s *Scheduler) purgeTokens(ctx context.Context) {
	n, err := s.tokens.PurgeExpired(ctx, s.now().UTC())
	if err != nil {
		log.WithError(err).Error("[CRON] refresh token purge failed")
		return
	}
	log.WithField("deleted", n).Info("[CRON] refresh tokens purged")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("[CRON] scheduler stopped")
}
