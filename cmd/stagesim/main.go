// Command stagesim runs the world–model–block spatial engine with a
// small fixed scene and serves its telemetry and metrics over HTTP.
// Grounded on the teacher's cmd/main.go: a cli-tagged config struct,
// context-with-signals shutdown, and a split public/admin listener pair.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/MarekWiejak/stagesim/featureflag"
	"github.com/MarekWiejak/stagesim/geom"
	"github.com/MarekWiejak/stagesim/httpx"
	"github.com/MarekWiejak/stagesim/model"
	"github.com/MarekWiejak/stagesim/spatial"
	"github.com/MarekWiejak/stagesim/telemetry"
	"github.com/MarekWiejak/stagesim/world"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var version = "v0.1.0"

type config struct {
	Addr      string        `cli:"" env:"STAGESIM_ADDR"          help:"Listening address for the telemetry websocket."`
	AdminAddr string        `cli:"" env:"STAGESIM_ADMIN_ADDR"    help:"Admin listening address (health, metrics, pprof)."`
	TickDur   time.Duration `cli:"" env:"STAGESIM_TICK_DURATION" help:"Wall-clock duration of one simulation tick."`
	PPM       float64       `cli:"" env:"STAGESIM_PPM"           help:"Spatial index resolution, in pixels per meter."`
	LogLevel  string        `cli:"" env:"STAGESIM_LOG_LEVEL"     help:"Log level (debug|info|warning|error)."`
	LogIndent bool          `cli:"" env:"STAGESIM_LOG_INDENT"    help:"Indent logs."`
	Flags     []string      `cli:"" env:"STAGESIM_FEATURE_FLAGS" help:"Comma separated feature flags."`
	Version   bool          `cli:"" env:"-"                      help:"Show version."`
}

func main() {
	conf := config{
		Addr:      ":4000",
		AdminAddr: ":18190",
		TickDur:   100 * time.Millisecond,
		PPM:       100,
		LogLevel:  logs.InfoLevel.String(),
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Runs the stagesim world-model-block engine.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	ff := featureflag.New(conf.Flags)

	w := world.New(conf.PPM, spatial.DefaultSuperregionPixels, spatial.DefaultRegionPixels)
	w.IntervalSim = conf.TickDur.Microseconds()
	w.SetFeatureFlags(ff)

	var ready atomic.Bool
	seedFixedScene(w)
	ready.Store(true)

	publisher := telemetry.NewPublisher()

	go runTickLoop(ctx, w, publisher, ff)

	var public http.ServeMux
	public.Handle("/ws", websocket.Handler(func(ws *websocket.Conn) {
		defer ws.Close()
		publisher.Handle(ctx, ws)
	}))

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/healthz", httpx.HandleHealthCheck)
	admin.HandleFunc("/ready", httpx.HandleReadyCheck(ready.Load))
	admin.HandleFunc("/version", httpx.HandleVersion(version))
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))

	logs.WithTag("version", version).
		WithTag("addr", conf.Addr).
		WithTag("ppm", conf.PPM).
		Info("stagesim starting")

	httpx.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&public, httpx.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

// seedFixedScene builds the small scene spec §8 S2 describes: two static
// obstacles and one mobile model, used when no world-file loader is
// wired in (world-file parsing stays out of scope).
func seedFixedScene(w *world.World) {
	obstacleA := w.AddModel("obstacle_a", model.KindGeneric, nil)
	obstacleA.SetObstacleReturn(true)
	obstacleA.AddBlock(squarePoints(0.5), 0, 1, model.Color{R: 0.6, G: 0.6, B: 0.6, A: 1}, false)
	obstacleA.SetPose(geom.Pose{X: 0, Y: 0})

	obstacleB := w.AddModel("obstacle_b", model.KindGeneric, nil)
	obstacleB.SetObstacleReturn(true)
	obstacleB.AddBlock(squarePoints(0.5), 0, 1, model.Color{R: 0.6, G: 0.6, B: 0.6, A: 1}, false)
	obstacleB.SetPose(geom.Pose{X: 2, Y: 0})

	mobile := w.AddModel("robot", model.KindPosition, nil)
	mobile.SetObstacleReturn(true)
	mobile.AddBlock(squarePoints(0.5), 0, 1, model.Color{R: 0.1, G: 0.5, B: 1, A: 1}, false)
	mobile.SetPose(geom.Pose{X: -3, Y: 0})
	mobile.SetVelocity(geom.Velocity{X: 0.5})
}

func squarePoints(half float64) []geom.Vec2 {
	return []geom.Vec2{
		{X: -half, Y: -half},
		{X: half, Y: -half},
		{X: half, Y: half},
		{X: -half, Y: half},
	}
}

func runTickLoop(ctx context.Context, w *world.World, publisher *telemetry.Publisher, ff featureflag.FeatureFlag) {
	ticker := time.NewTicker(w.TickWallClockInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick()
			ff.IfNotSet(featureflag.FlagDisableTelemetryBroadcast, func() {
				publisher.Publish(w, allModels(w))
			})
		}
	}
}

func allModels(w *world.World) []*model.Model {
	models := make([]*model.Model, 0, len(w.UpdateList())+len(w.VelocityList()))
	seen := make(map[uint32]struct{})
	for _, m := range w.VelocityList() {
		if _, ok := seen[m.ID()]; !ok {
			seen[m.ID()] = struct{}{}
			models = append(models, m)
		}
	}
	for _, m := range w.UpdateList() {
		if _, ok := seen[m.ID()]; !ok {
			seen[m.ID()] = struct{}{}
			models = append(models, m)
		}
	}
	return models
}
