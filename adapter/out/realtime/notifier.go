// Package realtime implements the Ping long-poll wakeup mechanism
// (out.ChangeNotifier) over Redis pub/sub, so Notify from one process
// wakes a Wait blocked in another — the teacher's in-process channel fanout
// (adapter/out/realtime/worker_sse_adapter.go) adapted to a multi-process
// deployment, the way go-redis's PubSub client is meant to be used.
package realtime

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "eas:changes:"

type changeEvent struct {
	PrincipalID  int64  `json:"principal_id"`
	CollectionID string `json:"collection_id"`
}

// Notifier implements out.ChangeNotifier backed by Redis Pub/Sub.
type Notifier struct {
	client *redis.Client
	log    zerolog.Logger
}

// New constructs a Notifier over an existing Redis client.
func New(client *redis.Client, log zerolog.Logger) *Notifier {
	return &Notifier{client: client, log: log.With().Str("component", "realtime_notifier").Logger()}
}

func channel(principalID int64) string {
	return fmt.Sprintf("%s%d", channelPrefix, principalID)
}

// Notify publishes a change event for collectionID, waking any Wait calls
// subscribed to this principal's channel across any process.
func (n *Notifier) Notify(ctx context.Context, principalID int64, collectionID string) error {
	payload, err := json.Marshal(changeEvent{PrincipalID: principalID, CollectionID: collectionID})
	if err != nil {
		return fmt.Errorf("realtime: marshal change event: %w", err)
	}
	if err := n.client.Publish(ctx, channel(principalID), payload).Err(); err != nil {
		return fmt.Errorf("realtime: publish change event: %w", err)
	}
	return nil
}

// Wait blocks until a change arrives for one of collectionIDs, ctx is
// done, or the caller's own timeout (threaded through ctx by the Ping
// handler) elapses. It returns the subset of watched collections that
// changed; an empty slice with a nil error means ctx expired with no
// change observed.
func (n *Notifier) Wait(ctx context.Context, principalID int64, deviceID string, collectionIDs []string) ([]string, error) {
	watched := make(map[string]struct{}, len(collectionIDs))
	for _, id := range collectionIDs {
		watched[id] = struct{}{}
	}

	sub := n.client.Subscribe(ctx, channel(principalID))
	defer sub.Close()

	ch := sub.Channel()
	var changed []string
	seen := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return changed, nil
		case msg, ok := <-ch:
			if !ok {
				return changed, nil
			}
			var evt changeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				n.log.Warn().Err(err).Msg("discarding malformed change event")
				continue
			}
			if _, watching := watched[evt.CollectionID]; !watching {
				continue
			}
			if _, already := seen[evt.CollectionID]; already {
				continue
			}
			seen[evt.CollectionID] = struct{}{}
			changed = append(changed, evt.CollectionID)
			// Return as soon as anything relevant changes; Ping's contract
			// is "wake on first change", not "collect every change in the
			// window".
			return changed, nil
		}
	}
}
