package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/config"
	"github.com/hasanawais/pica/internal/core"
	"github.com/hasanawais/pica/internal/events"
	"github.com/hasanawais/pica/internal/logging"
	"github.com/hasanawais/pica/internal/model"
	"github.com/hasanawais/pica/internal/server"
	"github.com/hasanawais/pica/internal/tui"
)

var (
	dryRun      bool
	interactive bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the UWB emulator",
	Long: `Start the pica UWB emulator.

pica listens for host connections speaking the UCI control protocol,
impersonates one virtual controller per connection, and synthesizes
ranging measurements against any configured anchors and other connected
devices.

Use --interactive or -i to run with a live fleet-dashboard TUI.`,
	RunE: runEmulator,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate configuration without starting the emulator")
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "run with an interactive fleet dashboard")
}

func runEmulator(_ *cobra.Command, _ []string) error {
	logCfg := logging.Config{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	}
	if interactive {
		logCfg.Format = "text"
		logCfg.Level = "error"
	}
	if err := logging.Initialize(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		logging.Info("using config file", zap.String("path", cfgFile))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if dryRun {
		fmt.Println("Configuration is valid!")
		fmt.Printf("  Listen: %s:%d\n", cfg.Listen.Host, cfg.Listen.Port)
		fmt.Printf("  Anchors: %d\n", len(cfg.Anchors))
		enabledSinks := 0
		for _, s := range cfg.Sinks {
			if s.Enabled {
				enabledSinks++
			}
		}
		fmt.Printf("  Sinks: %d enabled\n", enabledSinks)
		fmt.Printf("  Capture: enabled=%v dir=%s\n", cfg.Capture.Enabled, cfg.Capture.Dir)
		return nil
	}

	log := logging.With(zap.String("component", "pica"))

	c := core.NewCore(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.Run(ctx)

	if err := seedAnchors(c, cfg.Anchors); err != nil {
		return fmt.Errorf("failed to seed anchors: %w", err)
	}

	sinks, err := buildSinks(cfg.Sinks, log)
	if err != nil {
		return fmt.Errorf("failed to build event sinks: %w", err)
	}
	dispatcher := events.NewDispatcher(sinks, log)
	go dispatcher.Run(ctx, c.Events())

	addr := fmt.Sprintf("%s:%d", cfg.Listen.Host, cfg.Listen.Port)
	listener := server.New(addr, c, log, cfg.Capture.Dir, cfg.Capture.Enabled)

	listenErrCh := make(chan error, 1)
	go func() {
		listenErrCh <- listener.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if interactive {
		go func() {
			<-sigChan
			cancel()
		}()
		if err := tui.Run(c); err != nil {
			logging.Error("TUI error", zap.Error(err))
		}
	} else {
		logging.Info("pica is running; press Ctrl+C to stop", zap.String("addr", addr))
		select {
		case <-sigChan:
			logging.Info("received shutdown signal")
		case err := <-listenErrCh:
			if err != nil {
				logging.Error("listener stopped unexpectedly", zap.Error(err))
			}
		}
	}

	cancel()
	return nil
}

// seedAnchors injects every configured anchor into the running core before
// the listener is opened, so the first host connection already sees a
// populated world.
func seedAnchors(c *core.Core, anchors []config.AnchorConfig) error {
	for _, a := range anchors {
		mac, err := model.ParseMacAddress(a.MacAddress)
		if err != nil {
			return fmt.Errorf("anchor %q: %w", a.MacAddress, err)
		}
		reply := make(chan error, 1)
		c.Commands() <- core.CreateAnchor{
			MacAddress: mac,
			Position:   model.Position{X: a.X, Y: a.Y, Z: a.Z},
			Reply:      reply,
		}
		if err := <-reply; err != nil {
			return fmt.Errorf("anchor %q: %w", a.MacAddress, err)
		}
	}
	return nil
}

func buildSinks(cfgs []config.SinkConfig, log *zap.Logger) ([]events.Sink, error) {
	var sinks []events.Sink
	for _, sc := range cfgs {
		if !sc.Enabled {
			continue
		}
		sink, err := events.New(sc, log)
		if err != nil {
			return nil, fmt.Errorf("sink %q: %w", sc.Type, err)
		}
		sinks = append(sinks, sink)
		logging.Debug("initialized event sink", zap.String("sink", sink.Name()))
	}
	return sinks, nil
}
