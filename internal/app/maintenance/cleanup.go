package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/medrec/medrec/internal/services"
	"github.com/medrec/medrec/pkg/logger"
)

const (
	defaultSchedule  = "@hourly"
	defaultRetention = time.Hour
)

// Cleaner periodically removes verification tokens that expired past the
// retention window. Validation already deletes expired tokens on contact;
// this job catches the ones nobody ever clicked.
type Cleaner struct {
	tokens    *services.TokenService
	cron      *cron.Cron
	schedule  string
	retention time.Duration
	log       *zap.Logger
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for token cleanup.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithRetention adjusts how long expired tokens linger before removal.
func WithRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.retention = d
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(tokens *services.TokenService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		tokens:    tokens,
		schedule:  defaultSchedule,
		retention: defaultRetention,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.tokens == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("token cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the cleanup routine immediately. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if c.tokens == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	removed, err := c.tokens.PurgeExpired(ctx, c.retention)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("expired verification tokens purged", zap.Int64("count", removed))
	}
	return nil
}
