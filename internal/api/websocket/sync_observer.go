package websocket

import "github.com/ramonehamilton/commander-rater/internal/cardsync"

// Sync event types.
const (
	EventSyncProgress = "sync:progress"
	EventSyncComplete = "sync:complete"
)

// Broadcaster is implemented by Hub.
type Broadcaster interface {
	BroadcastEvent(Event) bool
}

// SyncObserver forwards sync progress to WebSocket clients.
type SyncObserver struct {
	hub Broadcaster
}

// NewSyncObserver creates an observer. A nil hub, including a nil *Hub, makes
// every method a no-op.
func NewSyncObserver(hub Broadcaster) *SyncObserver {
	if h, ok := hub.(*Hub); ok && h == nil {
		hub = nil
	}
	return &SyncObserver{hub: hub}
}

// OnProgress broadcasts one progress update. Its signature matches cardsync.ProgressFunc.
func (o *SyncObserver) OnProgress(p cardsync.Progress) {
	if o == nil || o.hub == nil {
		return
	}
	o.hub.BroadcastEvent(Event{Type: EventSyncProgress, Data: p})
}

// OnComplete broadcasts the final sync result.
func (o *SyncObserver) OnComplete(result cardsync.SyncResult) {
	if o == nil || o.hub == nil {
		return
	}
	o.hub.BroadcastEvent(Event{Type: EventSyncComplete, Data: result})
}
