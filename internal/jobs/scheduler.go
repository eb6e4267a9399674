package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"participium/api/internal/repository"
)

const (
	pendingAccountMaxAge = 7 * 24 * time.Hour
	notificationMaxAge   = 90 * 24 * time.Hour
	jobTimeout           = 5 * time.Minute
)

// Scheduler runs the periodic maintenance jobs: purging never-verified
// accounts, pruning stale notifications, and deleting expired sessions.
type Scheduler struct {
	cron          *cron.Cron
	users         *repository.UserRepository
	sessions      *repository.SessionRepository
	notifications *repository.NotificationRepository
	log           zerolog.Logger
}

func NewScheduler(
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	notifications *repository.NotificationRepository,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		users:         users,
		sessions:      sessions,
		notifications: notifications,
		log:           log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("30 3 * * *", s.purgePendingAccounts); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 4 * * *", s.pruneNotifications); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.deleteExpiredSessions); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Msg("maintenance scheduler started")
	return nil
}

// Stop waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("maintenance scheduler stopped")
}

func (s *Scheduler) purgePendingAccounts() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := time.Now().Add(-pendingAccountMaxAge)
	purged, err := s.users.PurgeExpiredPending(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("pending account purge failed")
		return
	}
	if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("unverified accounts purged")
	}
}

func (s *Scheduler) pruneNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := time.Now().Add(-notificationMaxAge)
	pruned, err := s.notifications.PruneOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("notification prune failed")
		return
	}
	if pruned > 0 {
		s.log.Info().Int64("pruned", pruned).Msg("stale notifications pruned")
	}
}

func (s *Scheduler) deleteExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("expired session cleanup failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("expired sessions deleted")
	}
}
