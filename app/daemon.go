package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/respite/alert"
	"github.com/ayoisaiah/respite/breaks"
	"github.com/ayoisaiah/respite/core"
	"github.com/ayoisaiah/respite/dist"
	"github.com/ayoisaiah/respite/internal/config"
	"github.com/ayoisaiah/respite/internal/logutil"
	"github.com/ayoisaiah/respite/internal/metrics"
	"github.com/ayoisaiah/respite/internal/pathutil"
	"github.com/ayoisaiah/respite/monitor"
	"github.com/ayoisaiah/respite/stats"
	"github.com/ayoisaiah/respite/store"
)

// daemon ties the core to the platform services it needs.
type daemon struct {
	log      *slog.Logger
	cfg      *config.Configurator
	core     *core.Core
	link     *dist.Link
	monitor  *monitor.Local
	notifier *alert.Notifier

	registry    *prometheus.Registry
	metricsAddr string
}

func alertOptions(s config.Settings) alert.Options {
	opts := alert.Options{
		Notifications: s.Notifications,
		Sound:         s.Sound,
		BreakCmd:      s.BreakCmd,
	}

	for _, id := range breaks.IDs {
		opts.Messages[id] = s.Breaks[id].Message
	}

	return opts
}

func newDaemon(cfg *config.Configurator, log *slog.Logger) (*daemon, error) {
	s := cfg.Settings()

	d := &daemon{
		log: log,
		cfg: cfg,
	}

	// break commands from the command line arrive on the same port as peer
	// traffic, so the link is opened even when distribution is off
	var peers []string
	if s.Distribution.Enabled {
		peers = s.Distribution.Peers
	}

	link, err := dist.Listen(s.Distribution.Listen, peers, log)
	if err != nil {
		return nil, errListen.Wrap(err)
	}

	d.link = link

	src, err := monitor.DetectSource()
	if err != nil {
		log.Warn(
			"no idle time source found; activity is only reported by peers and plugins",
			slog.Any("error", err),
		)

		src = monitor.NewManual(time.Now)
	}

	d.monitor = monitor.NewLocal(src, s.Monitor, log)

	d.notifier = alert.New(pathutil.Dir(), alertOptions(s), log)

	updateAlerts := func(string) {
		d.notifier.SetOptions(alertOptions(cfg.Settings()))
	}

	cfg.AddListener("general", updateAlerts)
	cfg.AddListener("breaks", updateAlerts)

	deps := core.Deps{
		Monitor:    d.monitor,
		Presenter:  d.notifier,
		Config:     cfg,
		Stats:      stats.NewRecorder(store.NewLazy(pathutil.DBFilePath()), time.Now(), log),
		Link:       link,
		Log:        log,
		StatePath:  pathutil.StateFilePath(),
		StatusPath: pathutil.StatusFilePath(),
	}

	if s.Metrics.Enabled {
		d.registry = prometheus.NewRegistry()
		d.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		deps.Metrics = metrics.NewCollector(d.registry)
		d.metricsAddr = s.Metrics.Listen
	}

	d.core = core.New(deps)
	d.notifier.SetFormatter(d.core)
	d.core.LoadState()

	return d, nil
}

// run blocks until ctx is cancelled or the core stops.
func (d *daemon) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := d.cfg.Watch(ctx); err != nil {
			d.log.Warn("configuration changes will not be picked up", slog.Any("error", err))
		}
	}()

	if d.registry != nil {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := metrics.Serve(ctx, d.metricsAddr, d.registry, d.log); err != nil {
				d.log.Error("metrics endpoint stopped", slog.Any("error", err))
			}
		}()
	}

	d.log.Info("respite started", slog.String("version", config.Version))

	err := d.core.Run(ctx)

	cancel()
	wg.Wait()

	return err
}

func (d *daemon) close() error {
	err := d.link.Close()

	d.notifier.Wait()

	return errors.Join(err, d.monitor.Close())
}

// runAction handles the run command and keeps the break timers going until
// the process is interrupted.
func runAction(ctx *cli.Context) error {
	if err := pathutil.Initialize(); err != nil {
		return err
	}

	cfg, err := config.Open(pathutil.ConfigFilePath(), logutil.Discard())
	if err != nil {
		return err
	}

	var mirror io.Writer
	if ctx.Bool("verbose") {
		mirror = os.Stderr
	}

	log, closer := logutil.New(logutil.Options{
		Path:   pathutil.LogFilePath(),
		Level:  cfg.Settings().LogLevel,
		Mirror: mirror,
	})
	defer closer.Close()

	cfg.SetLogger(log)

	d, err := newDaemon(cfg, log)
	if err != nil {
		return err
	}

	defer func() {
		if err := d.close(); err != nil {
			log.Warn("shutdown was not clean", slog.Any("error", err))
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return d.run(sigCtx)
}
