// Package telemetry exposes a world's per-tick state to an external
// renderer over a websocket, the "external renderer interface" spec §4.2
// calls out for the drawing routines the core itself never implements.
// Grounded on the teacher's websocket.Handle/Handler send-channel
// pattern, stripped from a bidirectional protobuf protocol down to a
// single outbound JSON snapshot message per tick.
package telemetry

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/MarekWiejak/stagesim/geom"
	"github.com/MarekWiejak/stagesim/model"
	"github.com/MarekWiejak/stagesim/world"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/net/websocket"
)

const sendChanSize = 64

// ModelSnapshot is one model's published state for a single tick.
type ModelSnapshot struct {
	ID     uint32     `json:"id"`
	Token  string     `json:"token"`
	Pose   geom.Pose  `json:"pose"`
	Color  model.Color `json:"color"`
	Stall  bool       `json:"stall"`
}

// Snapshot is the per-tick message published to every connected client.
type Snapshot struct {
	SimTime int64           `json:"sim_time"`
	Models  []ModelSnapshot `json:"models"`
}

// Publisher fans a world's tick snapshots out to connected websocket
// clients. One Publisher serves any number of connections; the driver of
// the tick loop calls Publish after each World.Tick.
type Publisher struct {
	mutex sync.RWMutex
	conns map[*conn]struct{}
}

type conn struct {
	send chan Snapshot
}

// NewPublisher constructs an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{conns: make(map[*conn]struct{})}
}

// Publish builds a snapshot of the given models at w's current sim time
// and fans it out to every
// connected client, dropping clients whose send buffer is full rather
// than blocking the tick loop.
func (p *Publisher) Publish(w *world.World, models []*model.Model) {
	snap := Snapshot{SimTime: w.SimTime}
	for _, m := range models {
		snap.Models = append(snap.Models, ModelSnapshot{
			ID:    m.ID(),
			Token: m.Token(),
			Pose:  m.GetGlobalPose(),
			Color: m.GetColor(),
			Stall: m.Stall(),
		})
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	for c := range p.conns {
		select {
		case c.send <- snap:
		default:
			logs.WithTag("pending", len(c.send)).Debug("dropping telemetry snapshot for slow client")
		}
	}
}

// Handle serves one websocket client: it registers the connection,
// streams every published Snapshot as JSON until the client disconnects
// or ctx is canceled, and deregisters on exit. Grounded on the teacher's
// websocket.Handle(ctx, conn, h) top-level entry point.
func (p *Publisher) Handle(ctx context.Context, ws *websocket.Conn) {
	c := &conn{send: make(chan Snapshot, sendChanSize)}

	p.mutex.Lock()
	p.conns[c] = struct{}{}
	p.mutex.Unlock()

	defer func() {
		p.mutex.Lock()
		delete(p.conns, c)
		p.mutex.Unlock()
	}()

	enc := json.NewEncoder(ws)
	for {
		select {
		case <-ctx.Done():
			return

		case snap := <-c.send:
			if err := enc.Encode(snap); err != nil {
				logs.Debug(errors.New("sending telemetry snapshot failed").Wrap(err))
				return
			}
		}
	}
}

// ConnCount reports the number of currently connected clients, for
// metrics and tests.
func (p *Publisher) ConnCount() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return len(p.conns)
}
