package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pluto0x0/dragonify/internal/bridge"
	"github.com/pluto0x0/dragonify/internal/config"
	"github.com/pluto0x0/dragonify/internal/docker"
	"github.com/pluto0x0/dragonify/internal/events"
	"github.com/pluto0x0/dragonify/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reconciler daemon",
	Long:  `Provision the managed network and keep reconciling container membership for the process lifetime.`,
	Run:   runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) {
	log := logger.GetLogger()
	log.ConfigureFromEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}
	if cfg.LogLevel != "" {
		log.SetLogLevel(cfg.LogLevel)
	}

	logger.Info("Starting dragonify",
		"version", BuildVersion,
		"network", cfg.NetworkName,
		"host_gateway_enabled", cfg.HostGateway.Enabled)

	client, err := docker.NewClient()
	if err != nil {
		logger.Fatal("Failed to initialize Docker client", "error", err)
	}
	defer client.Close()

	bus := events.NewBus(100)
	bus.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		logger.Info("Shutting down", "signal", sig)
		cancel()
	}()

	reconciler := bridge.NewReconciler(ctx, client, cfg, bus)
	if err := reconciler.Run(); err != nil {
		logger.Fatal("Reconciler failed", "error", err)
	}

	if err := bus.Stop(); err != nil {
		logger.Warn("Event bus did not stop cleanly", "error", err)
	}
}
