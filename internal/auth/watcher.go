package auth

import "sync"

type EventType string

const (
	SignedIn  EventType = "signed_in"
	SignedOut EventType = "signed_out"
)

// Event is one sign-in or sign-out transition. Fresh marks a sign-in that
// directly follows sign-up.
type Event struct {
	Type     EventType
	UserId   string
	Username string
	Fresh    bool
}

// Watcher fans auth transitions out to subscribers.
type Watcher struct {
	mu     sync.RWMutex
	nextId int
	subs   map[int]func(Event)
}

func NewWatcher() *Watcher {
	return &Watcher{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns the function that removes it. Calling
// the returned function more than once is harmless.
func (w *Watcher) Subscribe(fn func(Event)) func() {
	w.mu.Lock()
	id := w.nextId
	w.nextId++
	w.subs[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			w.mu.Unlock()
		})
	}
}

// Emit delivers ev to every current subscriber on the caller's goroutine.
func (w *Watcher) Emit(ev Event) {
	w.mu.RLock()
	subs := make([]func(Event), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (w *Watcher) Subscribers() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.subs)
}
