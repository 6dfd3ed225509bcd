package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatcherSubscribeAndRelease(t *testing.T) {
	w := NewWatcher()

	var a, b []Event
	unsubA := w.Subscribe(func(ev Event) { a = append(a, ev) })
	unsubB := w.Subscribe(func(ev Event) { b = append(b, ev) })
	assert.Equal(t, 2, w.Subscribers())

	w.Emit(Event{Type: SignedIn, UserId: "u1"})
	unsubA()
	unsubA()
	w.Emit(Event{Type: SignedOut, UserId: "u1"})

	assert.Len(t, a, 1)
	assert.Len(t, b, 2)
	assert.Equal(t, 1, w.Subscribers())

	unsubB()
	assert.Equal(t, 0, w.Subscribers())
}

func TestWatcherAllowsUnsubscribeDuringEmit(t *testing.T) {
	w := NewWatcher()

	calls := 0
	var unsub func()
	unsub = w.Subscribe(func(Event) {
		calls++
		unsub()
	})

	w.Emit(Event{Type: SignedOut})
	w.Emit(Event{Type: SignedOut})
	assert.Equal(t, 1, calls)
}
