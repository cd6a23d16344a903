// Package sse fans the note refresh signal out to browser clients using
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// TreeChange is the payload of a "tree.changed" event. Root is set when the
// list of top-level notes changed; Labels names notes whose content or label
// changed.
type TreeChange struct {
	Root   bool     `json:"root"`
	Labels []string `json:"labels"`
}

type changeReq struct {
	label string // empty for a root change
}

// Broker manages SSE client connections and broadcasts events.
//
// A single goroutine owns the client set and the pending change batch.
// Changes are coalesced: the first change in a quiet period goes out at
// once, later ones are merged and sent when the window closes.
type Broker struct {
	window time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker coalescing tree changes over window.
func NewBroker(window time.Duration) *Broker {
	if window <= 0 {
		window = 500 * time.Millisecond
	}

	b := &Broker{
		window:        window,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan changeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	var (
		pendingRoot   bool
		pendingLabels = make(map[string]struct{})
		hasPending    bool
		windowTimer   *time.Timer
		windowCh      <-chan time.Time
	)

	sendChange := func(root bool, labels map[string]struct{}) {
		list := make([]string, 0, len(labels))
		for l := range labels {
			list = append(list, l)
		}
		sort.Strings(list)
		broadcast(Event{Type: "tree.changed", Data: TreeChange{Root: root, Labels: list}})
	}

	for {
		select {
		case <-b.stopCh:
			if windowTimer != nil {
				windowTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.changeCh:
			if windowCh == nil {
				labels := map[string]struct{}{}
				if req.label != "" {
					labels[req.label] = struct{}{}
				}
				sendChange(req.label == "", labels)
				windowTimer = time.NewTimer(b.window)
				windowCh = windowTimer.C
				continue
			}
			hasPending = true
			if req.label == "" {
				pendingRoot = true
			} else {
				pendingLabels[req.label] = struct{}{}
			}

		case <-windowCh:
			windowCh = nil
			if hasPending {
				sendChange(pendingRoot, pendingLabels)
				pendingRoot, hasPending = false, false
				pendingLabels = make(map[string]struct{})
				windowTimer = time.NewTimer(b.window)
				windowCh = windowTimer.C
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange queues a refresh signal. An empty label means the root
// list changed.
func (b *Broker) PublishChange(label string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- changeReq{label: label}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
