// Package events allows for the registering and receiving of ledger
// activity notifications, like donations being mined or round funds being
// allocated.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Notification is the payload sent to every registered channel.
type Notification struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// Feed maintains a mapping of unique id and channels so goroutines
// can register and receive notifications.
type Feed struct {
	m  map[string]chan string
	mu sync.RWMutex
}

// New constructs a feed for registering and receiving notifications.
func New() *Feed {
	return &Feed{
		m: make(map[string]chan string),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (f *Feed) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, ch := range f.m {
		delete(f.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive notifications.
func (f *Feed) Acquire(id string) chan string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch, exists := f.m[id]
	if exists {
		return ch
	}

	// A message is dropped if the websocket receiver is not ready to
	// receive, so this arbitrary buffer gives a slow receiver room.
	const messageBuffer = 100

	f.m[id] = make(chan string, messageBuffer)
	return f.m[id]
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (f *Feed) Release(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch, exists := f.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(f.m, id)
	close(ch)
	return nil
}

// Send signals a notification to every registered channel. Send will not
// block waiting for a receiver on any given channel.
func (f *Feed) Send(kind string, data any) {
	msg, err := json.Marshal(Notification{Kind: kind, Data: data})
	if err != nil {
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, ch := range f.m {
		select {
		case ch <- string(msg):
		default:
		}
	}
}
