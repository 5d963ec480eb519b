package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/swamys/hotfoods/internal/model"
)

// LocalBroadcaster is the in-process fan-out the relay feeds. It is
// satisfied by *broadcast.Registry.
type LocalBroadcaster interface {
	Publish(cfg *model.StoreConfig) int
}

// Relay forwards store config updates made by other instances into the
// local broadcaster, so streams on every instance see every mutation.
type Relay struct {
	sub    Subscriber
	local  LocalBroadcaster
	origin string
	logger *slog.Logger
}

// NewRelay returns a relay that ignores events whose origin is origin.
func NewRelay(sub Subscriber, local LocalBroadcaster, origin string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{sub: sub, local: local, origin: origin, logger: logger}
}

// Run forwards events until ctx is cancelled or the subscription closes.
func (r *Relay) Run(ctx context.Context) error {
	ch, cancel, err := r.sub.Subscribe(TopicStoreConfigUpdated)
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			r.forward(data)
		}
	}
}

func (r *Relay) forward(data []byte) {
	var evt StoreConfigUpdated
	if err := json.Unmarshal(data, &evt); err != nil {
		r.logger.Warn("relay: dropping malformed store config event", "err", err)
		return
	}
	if evt.Config == nil {
		r.logger.Warn("relay: store config event without config", "origin", evt.Origin)
		return
	}
	if evt.Origin == r.origin {
		return
	}
	r.logger.Debug("relaying store config update", "origin", evt.Origin)
	r.local.Publish(evt.Config)
}
