package telemetry

import (
	"testing"

	"github.com/MarekWiejak/stagesim/model"
	"github.com/MarekWiejak/stagesim/world"
	"github.com/stretchr/testify/require"
)

func TestPublishFansOutToConnectedClients(t *testing.T) {
	p := NewPublisher()
	c := &conn{send: make(chan Snapshot, 1)}
	p.conns[c] = struct{}{}

	w := world.New(10, 64, 16)
	m := w.AddModel("m", model.KindGeneric, nil)

	p.Publish(w, []*model.Model{m})

	select {
	case snap := <-c.send:
		require.Len(t, snap.Models, 1)
		require.Equal(t, m.ID(), snap.Models[0].ID)
		require.Equal(t, m.Token(), snap.Models[0].Token)
	default:
		t.Fatal("expected a snapshot to be sent")
	}
}

func TestPublishDropsSlowClientsWithoutBlocking(t *testing.T) {
	p := NewPublisher()
	c := &conn{send: make(chan Snapshot, 1)}
	c.send <- Snapshot{} // fill the buffer
	p.conns[c] = struct{}{}

	w := world.New(10, 64, 16)

	require.NotPanics(t, func() {
		p.Publish(w, nil)
	})
}

func TestConnCount(t *testing.T) {
	p := NewPublisher()
	require.Equal(t, 0, p.ConnCount())

	p.conns[&conn{send: make(chan Snapshot, 1)}] = struct{}{}
	require.Equal(t, 1, p.ConnCount())
}
