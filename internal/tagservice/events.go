package tagservice

import (
	"github.com/zjrosen/tagset/internal/domain/tags"
)

// TagEvent is published for every tag resolved, failed or removed. It is
// carried as the payload of a pubsub.Event whose Type is ResolvedEvent,
// FailedEvent or RemovedEvent.
type TagEvent struct {
	Key        tags.Key
	Generation uint64
	RunID      string
	Materials  int
	Subtags    int
	Err        error
}
