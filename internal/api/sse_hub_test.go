package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchdash/domain/core"
	"launchdash/internal/dashboard"
)

func TestSSEHub_DeliversToSessionClients(t *testing.T) {
	hub := NewSSEHub(time.Second)
	defer hub.Stop()

	session := core.NewSessionID()
	other := core.NewSessionID()

	events, unsubscribe := hub.Subscribe(session)
	otherEvents, unsubscribeOther := hub.Subscribe(other)
	defer unsubscribeOther()

	assert.Equal(t, 1, hub.GetClientCount(session))
	assert.Equal(t, 1, hub.GetClientCount(other))

	hub.Broadcast(dashboard.Event{SessionID: session, Kind: dashboard.EventPie})

	select {
	case event := <-events:
		assert.Equal(t, dashboard.EventPie, event.Kind)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case event := <-otherEvents:
		t.Fatalf("unexpected event for other session: %+v", event)
	case <-time.After(20 * time.Millisecond):
	}

	unsubscribe()
	assert.Equal(t, 0, hub.GetClientCount(session))

	_, open := <-events
	assert.False(t, open, "channel closed after unsubscribe")

	unsubscribe()
}

func TestSSEHub_BroadcastRightAfterSubscribeIsDelivered(t *testing.T) {
	hub := NewSSEHub(time.Second)
	defer hub.Stop()

	for i := 0; i < 200; i++ {
		session := core.NewSessionID()
		events, unsubscribe := hub.Subscribe(session)
		hub.Broadcast(dashboard.Event{SessionID: session, Kind: dashboard.EventScatter})

		select {
		case event := <-events:
			require.Equal(t, session, event.SessionID)
		case <-time.After(time.Second):
			t.Fatalf("event %d broadcast after Subscribe was dropped", i)
		}
		unsubscribe()
	}
}

func TestSSEHub_BroadcastPreservesOrder(t *testing.T) {
	hub := NewSSEHub(time.Second)
	defer hub.Stop()

	session := core.NewSessionID()
	events, unsubscribe := hub.Subscribe(session)
	defer unsubscribe()

	hub.Broadcast(dashboard.Event{SessionID: session, Kind: dashboard.EventPie})
	hub.Broadcast(dashboard.Event{SessionID: session, Kind: dashboard.EventScatter})

	var kinds []dashboard.EventKind
	for len(kinds) < 2 {
		select {
		case event := <-events:
			kinds = append(kinds, event.Kind)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
	assert.Equal(t, []dashboard.EventKind{dashboard.EventPie, dashboard.EventScatter}, kinds)
}

func TestSSEHub_StopIsIdempotent(t *testing.T) {
	hub := NewSSEHub(0)
	hub.Stop()
	hub.Stop()
	assert.Equal(t, 30*time.Second, hub.keepAlive)
}
