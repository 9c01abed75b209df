package committer

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/accounts/pkg/configuration"
	"github.com/iota-uz/accounts/pkg/retry"
)

type Options struct {
	// MaxAttempts bounds how often a commit that owns its transaction is tried.
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	JitterMax   time.Duration
	// Timeout applies when ctx carries no deadline of its own.
	Timeout time.Duration

	// Feed, when set, receives every audit record in the same transaction.
	Feed Feed

	Logger *logrus.Entry
	Rand   *rand.Rand
	Now    func() time.Time
	Sleep  func(ctx context.Context, d time.Duration) error
}

// OptionsFromConfig maps the AUDIT_COMMIT_* settings.
func OptionsFromConfig(c configuration.CommitOptions) Options {
	return Options{
		MaxAttempts: c.MaxAttempts,
		BaseBackoff: c.BaseBackoff,
		MaxBackoff:  c.MaxBackoff,
		JitterMax:   c.JitterMax,
		Timeout:     c.Timeout,
	}
}

func (o *Options) setDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BaseBackoff == 0 {
		o.BaseBackoff = 50 * time.Millisecond
	}
	if o.MaxBackoff == 0 {
		o.MaxBackoff = 2 * time.Second
	}
	if o.Rand == nil {
		o.Rand = retry.NewRand()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
