package badge

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
)

// KeeperEventType classifies keeper events.
type KeeperEventType string

const (
	// KeeperEventStarted indicates the keeper has started.
	KeeperEventStarted KeeperEventType = "started"
	// KeeperEventReissued indicates a badge was reissued.
	KeeperEventReissued KeeperEventType = "reissued"
	// KeeperEventError indicates an issuance attempt failed.
	KeeperEventError KeeperEventType = "error"
	// KeeperEventStopped indicates the keeper has stopped.
	KeeperEventStopped KeeperEventType = "stopped"
)

// KeeperEvent is emitted on every keeper state change.
type KeeperEvent struct {
	Type      KeeperEventType
	Badge     string
	Error     string
	Timestamp time.Time
}

// KeeperConfig holds configuration for the badge Keeper.
type KeeperConfig struct {
	// ServiceURL is where the service's capabilities are discovered.
	ServiceURL string

	// Interval is how often the badge is reissued. Defaults to 12h.
	Interval time.Duration

	// OutputFile, when set, receives the latest badge on each reissue.
	OutputFile string
}

// Keeper periodically reruns badge issuance so the registered badge tracks
// the service's current capability schema. Issuance at the authority
// overwrites the previous badge for the same service.
type Keeper struct {
	config KeeperConfig
	issuer *Issuer
	logger *zap.Logger
}

// NewKeeper creates a Keeper on top of an Issuer.
func NewKeeper(issuer *Issuer, config KeeperConfig, logger *zap.Logger) *Keeper {
	if config.Interval == 0 {
		config.Interval = 12 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Keeper{config: config, issuer: issuer, logger: logger}
}

// Run issues once immediately, then reissues on every tick until ctx is
// cancelled. The initial issuance failing is fatal; later failures are
// logged and retried on the next tick.
func (k *Keeper) Run(ctx context.Context) error {
	return k.run(ctx, nil)
}

// RunWithEvents is Run with an observer channel. The channel is closed when
// the keeper stops.
func (k *Keeper) RunWithEvents(ctx context.Context, events chan<- KeeperEvent) error {
	defer close(events)
	return k.run(ctx, events)
}

func (k *Keeper) run(ctx context.Context, events chan<- KeeperEvent) error {
	ticker := time.NewTicker(k.config.Interval)
	defer ticker.Stop()

	emit(events, KeeperEvent{Type: KeeperEventStarted, Timestamp: time.Now()})

	if err := k.reissue(ctx, events); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			emit(events, KeeperEvent{Type: KeeperEventStopped, Timestamp: time.Now()})
			return nil
		case <-ticker.C:
			if err := k.reissue(ctx, events); err != nil {
				// Keep the daemon alive; the badge at the authority is
				// still the previous one.
				k.logger.Warn("badge reissue failed", zap.Error(err))
			}
		}
	}
}

func (k *Keeper) reissue(ctx context.Context, events chan<- KeeperEvent) error {
	issued, err := k.issuer.IssueBadgeFor(ctx, k.config.ServiceURL)
	if err != nil {
		emit(events, KeeperEvent{Type: KeeperEventError, Error: err.Error(), Timestamp: time.Now()})
		return err
	}

	if k.config.OutputFile != "" {
		if err := os.WriteFile(k.config.OutputFile, []byte(issued), 0o600); err != nil {
			emit(events, KeeperEvent{Type: KeeperEventError, Error: err.Error(), Timestamp: time.Now()})
			return err
		}
	}

	emit(events, KeeperEvent{Type: KeeperEventReissued, Badge: issued, Timestamp: time.Now()})
	return nil
}

func emit(events chan<- KeeperEvent, ev KeeperEvent) {
	if events != nil {
		events <- ev
	}
}
