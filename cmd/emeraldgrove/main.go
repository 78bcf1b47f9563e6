// Package main is a small wiring demo for the engine event core: typed
// bus, legacy bridge, and Lua mods host.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/emeraldgrove/engine/internal/config"
	"github.com/emeraldgrove/engine/internal/event"
	"github.com/emeraldgrove/engine/internal/event/events"
	"github.com/emeraldgrove/engine/internal/legacy"
	"github.com/emeraldgrove/engine/internal/mods"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("emeraldgrove %s (%s)\n", version, commit)
		return 0
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	bus := event.NewBus(event.WithLogger(logger))
	legacyBus := legacy.NewBus()

	if cfg.Bridge.Enabled {
		adapter := event.NewLegacyAdapter(bus, legacyBus, event.WithAdapterLogger(logger))
		defer adapter.Close()
		wireBridge(adapter)
	}

	if cfg.Mods.Dir != "" {
		host := mods.NewHost(bus, cfg.Mods.Dir, mods.WithHostLogger(logger))
		defer host.Close()
		if err := host.LoadAll(); err != nil {
			logger.Warn("mods unavailable", zap.Error(err))
		} else if cfg.Mods.Watch {
			if err := host.Watch(); err != nil {
				logger.Warn("mod hot reload unavailable", zap.Error(err))
			}
		}
	}

	demo(bus, logger)

	// Keep running so mod hot reload can be exercised interactively.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	stats := bus.Stats()
	logger.Info("shutting down",
		zap.Uint64("events_published", stats.EventsPublished),
		zap.Uint64("handlers_executed", stats.HandlersExecuted),
		zap.Uint64("handler_errors", stats.HandlerErrors),
		zap.Uint64("handler_panics", stats.HandlerPanics),
	)
	return 0
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// wireBridge sets up the bidirectional MapLoaded mapping between the typed
// and legacy buses.
func wireBridge(adapter *event.LegacyAdapter) {
	event.BidirectionalForward(adapter, legacy.NameMapLoaded,
		func(ev events.MapLoaded) (legacy.Event, bool) {
			return legacy.MapLoadedEvent{Base: legacy.NewBase(), MapID: ev.ID}, true
		},
		func(lev legacy.Event) (events.MapLoaded, bool) {
			ml, ok := lev.(legacy.MapLoadedEvent)
			if !ok {
				return events.MapLoaded{}, false
			}
			return events.MapLoaded{Meta: event.NewMeta(event.PriorityHigh), ID: ml.MapID}, true
		},
	)
}

// demo publishes a short scripted sequence so subscribers (including any
// loaded mods) have something to observe.
func demo(bus *event.Bus, logger *zap.Logger) {
	event.Subscribe(bus, func(ev events.EntityMoved) error {
		logger.Info("entity moved",
			zap.Uint64("entity", ev.Entity),
			zap.Int("x", ev.X),
			zap.Int("y", ev.Y),
		)
		return nil
	}, event.WithPriority(event.PriorityLow))

	event.Publish(bus, events.MapLoaded{Meta: event.NewMeta(event.PriorityHigh), ID: 7})
	if !events.RequestMove(bus, 1, 0, 0, 1, 0) {
		logger.Info("move vetoed")
	}
}
