package util

import "sync"

type SigHandler func(sender any, params ...any)

type sigHandler struct {
	id      int
	handler SigHandler
}

// Signals is a small synchronous event bus. Handlers run on the emitting
// goroutine in the order they were connected.
type Signals struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string][]sigHandler
}

func NewSignals() *Signals {
	return &Signals{handlers: make(map[string][]sigHandler)}
}

var defaultSignals = NewSignals()

// Sig returns the process-wide bus.
func Sig() *Signals {
	return defaultSignals
}

// Connect registers handler for event and returns an id for Disconnect.
func (s *Signals) Connect(event string, handler SigHandler) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.handlers[event] = append(s.handlers[event], sigHandler{id: s.nextID, handler: handler})
	return s.nextID
}

func (s *Signals) Disconnect(event string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs := s.handlers[event]
	for i, h := range hs {
		if h.id == id {
			s.handlers[event] = append(hs[:i:i], hs[i+1:]...)
			return
		}
	}
}

func (s *Signals) Emit(event string, sender any, params ...any) {
	if s == nil {
		return
	}
	s.mu.RLock()
	hs := append([]sigHandler(nil), s.handlers[event]...)
	s.mu.RUnlock()
	for _, h := range hs {
		h.handler(sender, params...)
	}
}
