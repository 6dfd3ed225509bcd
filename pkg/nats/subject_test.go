package nats

import (
	"testing"

	"chatrelay-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubjectRoundTrip(t *testing.T) {
	assert.Equal(t, "events.AUTH_SIGNED_OUT", Subject(events.AuthSignedOut))
	assert.Equal(t, events.AuthSignedOut, EventType(Subject(events.AuthSignedOut)))
	assert.Equal(t, "RAW", EventType("RAW"))
}
