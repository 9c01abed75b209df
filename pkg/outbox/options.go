package outbox

import (
	"cmp"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/accounts/pkg/configuration"
	"github.com/iota-uz/accounts/pkg/retry"
)

type RelayOptions struct {
	PollInterval time.Duration
	BatchSize    int
	// LockTTL is how long a claim stays exclusive before another relay may take the message.
	LockTTL     time.Duration
	MaxAttempts int
	// SingleActive makes relays on the same table elect one leader through an advisory lock.
	SingleActive bool

	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	JitterMax   time.Duration

	LastErrorMaxLen        int
	DispatchTimeout        time.Duration
	ObserveQueueDepthEvery time.Duration

	Logger *logrus.Entry
	Rand   *rand.Rand
}

func (o *RelayOptions) setDefaults() {
	o.PollInterval = cmp.Or(o.PollInterval, time.Second)
	o.BatchSize = cmp.Or(o.BatchSize, 100)
	o.LockTTL = cmp.Or(o.LockTTL, time.Minute)
	o.MaxAttempts = cmp.Or(o.MaxAttempts, 25)
	o.BaseBackoff = cmp.Or(o.BaseBackoff, time.Second)
	o.MaxBackoff = cmp.Or(o.MaxBackoff, time.Minute)
	o.JitterMax = cmp.Or(o.JitterMax, 200*time.Millisecond)
	o.LastErrorMaxLen = cmp.Or(o.LastErrorMaxLen, 2048)
	o.DispatchTimeout = cmp.Or(o.DispatchTimeout, 30*time.Second)
	o.ObserveQueueDepthEvery = cmp.Or(o.ObserveQueueDepthEvery, 10*time.Second)
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	if o.Rand == nil {
		o.Rand = retry.NewRand()
	}
}

func (o RelayOptions) retryPolicy() retry.Policy {
	return retry.Policy{Base: o.BaseBackoff, Max: o.MaxBackoff, Jitter: o.JitterMax}
}

type CleanerOptions struct {
	Enabled   bool
	Interval  time.Duration
	Retention time.Duration
	// DeadRetention, when set, also removes unpublished messages that reached
	// DeadAttemptsThreshold and are older than it.
	DeadRetention         time.Duration
	DeadAttemptsThreshold int

	Logger *logrus.Entry
}

func (o *CleanerOptions) setDefaults() {
	o.Interval = cmp.Or(o.Interval, time.Minute)
	o.Retention = cmp.Or(o.Retention, 7*24*time.Hour)
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
}

// RelayOptionsFromConfig maps the OUTBOX_RELAY_* settings.
func RelayOptionsFromConfig(c configuration.OutboxOptions, logger *logrus.Entry) RelayOptions {
	return RelayOptions{
		PollInterval:    c.RelayPollInterval,
		BatchSize:       c.RelayBatchSize,
		LockTTL:         c.RelayLockTTL,
		MaxAttempts:     c.RelayMaxAttempts,
		SingleActive:    c.RelaySingleActive,
		BaseBackoff:     c.RelayBaseBackoff,
		MaxBackoff:      c.RelayMaxBackoff,
		DispatchTimeout: c.RelayDispatchTimeout,
		LastErrorMaxLen: c.LastErrorMaxBytes,
		Logger:          logger,
	}
}

// CleanerOptionsFromConfig maps the OUTBOX_CLEANER_* settings. Dead messages are those that
// used up the relay's attempts.
func CleanerOptionsFromConfig(c configuration.OutboxOptions, logger *logrus.Entry) CleanerOptions {
	return CleanerOptions{
		Enabled:               true,
		Interval:              c.CleanerInterval,
		Retention:             c.CleanerRetention,
		DeadRetention:         c.CleanerDeadRetention,
		DeadAttemptsThreshold: c.RelayMaxAttempts,
		Logger:                logger,
	}
}
