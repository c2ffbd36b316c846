// Command xrsim drives the immersive session manager against the simulated
// host and prints the notification stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/xrsession/internal/config"
	"github.com/banshee-data/xrsession/internal/journal"
	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/presence"
	"github.com/banshee-data/xrsession/internal/timeutil"
	"github.com/banshee-data/xrsession/internal/version"
	"github.com/banshee-data/xrsession/internal/xr"
	"github.com/banshee-data/xrsession/internal/xr/controller"
	"github.com/banshee-data/xrsession/internal/xr/event"
	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/simhost"
)

var (
	configPath  = flag.String("config", "", "Path to an XR config JSON file (defaults when empty)")
	journalPath = flag.String("journal", "", "Path to the sqlite session journal (disabled when empty)")
	debugListen = flag.String("debug-listen", "", "Listen address for /debug and /metrics (disabled when empty)")
	grpcListen  = flag.String("grpc-listen", "", "Listen address for gRPC health (disabled when empty)")
	mode        = flag.String("mode", "native", "Simulated host compositor: native or emulated")
	frames      = flag.Int("frames", 300, "Number of frames to simulate")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options is everything run needs; main fills it from flags.
type options struct {
	Config      *config.XRConfig
	JournalPath string
	DebugListen string
	GRPCListen  string
	Native      bool
	Frames      int
	Clock       timeutil.Clock
	Out         io.Writer
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *mode != "native" && *mode != "emulated" {
		log.Fatalf("invalid -mode %q: must be native or emulated", *mode)
	}
	if *frames <= 0 {
		log.Fatal("-frames must be positive")
	}

	cfg := config.DefaultXRConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadXRConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	monitoring.Logf("xrsim %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, options{
		Config:      cfg,
		JournalPath: *journalPath,
		DebugListen: *debugListen,
		GRPCListen:  *grpcListen,
		Native:      *mode == "native",
		Frames:      *frames,
		Clock:       timeutil.RealClock{},
		Out:         os.Stdout,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("xrsim: %v", err)
	}
}

func run(ctx context.Context, opts options) error {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewXRMetrics(reg)

	backend := simhost.NewBackend(opts.Native)
	m := xr.NewManager(backend, opts.Config, metrics)
	m.Enabled = true
	printEvents(m, opts.Out)

	var j *journal.Journal
	if opts.JournalPath != "" {
		var err error
		if j, err = journal.Open(opts.JournalPath); err != nil {
			return err
		}
		defer j.Close()
		defer j.Attach(m)()
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	if opts.GRPCListen != "" {
		ps := presence.NewServer(opts.GRPCListen)
		ps.Attach(m)
		if err := ps.Start(); err != nil {
			return err
		}
		defer ps.Stop()
	}

	if opts.DebugListen != "" {
		mux := http.NewServeMux()
		m.AttachAdminRoutes(mux)
		if j != nil {
			if err := j.AttachAdminRoutes(mux); err != nil {
				return err
			}
		}
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

		server := &http.Server{Addr: opts.DebugListen, Handler: mux}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				monitoring.Logf("xrsim: debug server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	sc := newScene(m, opts.Native)
	if _, err := sc.overlay(); err != nil {
		return err
	}
	m.SetAnimationLoop(func(float64, host.Frame) { sc.camera() })

	session := simhost.NewSession(opts.Native)
	if err := m.StartSession(ctx, session); err != nil {
		return err
	}
	defer m.EndSession()

	pump := &simhost.Pump{
		Session:  session,
		Clock:    opts.Clock,
		Interval: opts.Config.GetFrameInterval(),
		Scene:    sc.frame(session),
	}
	n, err := pump.Run(ctx, opts.Frames)
	fmt.Fprintf(opts.Out, "delivered %d frames\n", n)
	return err
}

// printEvents writes one line per manager and controller notification.
func printEvents(m *xr.Manager, out io.Writer) {
	for _, typ := range []string{
		xr.EventSessionStart, xr.EventSessionEnd,
		xr.EventPlaneAdded, xr.EventPlaneRemoved, xr.EventPlaneChanged,
	} {
		m.AddEventListener(typ, func(ev event.Event) {
			if p, ok := ev.Data.(*simhost.Plane); ok {
				fmt.Fprintf(out, "%s %s t=%g\n", ev.Type, p.Name, p.LastChangedTime())
				return
			}
			fmt.Fprintln(out, ev.Type)
		})
	}
	for i := 0; i < 2; i++ {
		c := m.ControllerHandle(i)
		for _, typ := range []string{controller.EventConnected, controller.EventDisconnected, string(host.EventSelect)} {
			c.AddEventListener(typ, func(ev event.Event) {
				name := ""
				if src, ok := ev.Data.(*simhost.InputSource); ok {
					name = src.Name
				}
				fmt.Fprintf(out, "controller[%d] %s %s\n", i, ev.Type, name)
			})
		}
	}
}
