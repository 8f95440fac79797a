// Package sse pushes server-sent events to groups of open browser tabs.
package sse

import (
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Event is one message; Data is JSON encoded unless it is a string.
type Event struct {
	Name string
	Data any
}

type client struct {
	id    string
	group string
	ch    chan Event
}

// Hub fans events out to the clients of a group. Slow clients drop events
// instead of blocking the publisher.
type Hub struct {
	mu       sync.RWMutex
	groups   map[string]map[string]*client // group -> client id -> client
	interval time.Duration
	buffer   int
	done     chan struct{}
	once     sync.Once
}

func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		groups:   make(map[string]map[string]*client),
		interval: interval,
		buffer:   16,
		done:     make(chan struct{}),
	}
}

func (h *Hub) subscribe(group string) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &client{id: uuid.NewString(), group: group, ch: make(chan Event, h.buffer)}
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]*client)
	}
	h.groups[group][c.id] = c
	return c
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.groups[c.group]
	delete(members, c.id)
	if len(members) == 0 {
		delete(h.groups, c.group)
	}
}

// Subscribers returns the number of open streams in group.
func (h *Hub) Subscribers(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Publish queues ev for every client in group and reports how many took it.
func (h *Hub) Publish(group string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, c := range h.groups[group] {
		select {
		case c.ch <- ev:
			sent++
		default:
		}
	}
	return sent
}

// Close ends every open stream. It is safe to call more than once.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

// Serve streams the group's events until the request ends, with a ping
// every interval to keep proxies from closing the connection.
func (h *Hub) Serve(c *gin.Context, group string) {
	cl := h.subscribe(group)
	defer h.unsubscribe(cl)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	c.SSEvent("ready", gin.H{"interval": h.interval.Seconds()})
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-h.done:
			return false
		case <-ping.C:
			c.SSEvent("ping", "{}")
			return true
		case ev := <-cl.ch:
			c.SSEvent(ev.Name, ev.Data)
			return true
		}
	})
}
