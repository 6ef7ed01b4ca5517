package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vlab/internal/config"
	"vlab/internal/logging"
	"vlab/internal/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configPath string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vlab",
	Short: "vlab - circuit simulation backend",
	Long: `vlab is the backend for a web-based electronics lab.

It stores user circuits, runs SPICE analyses (operating point, transient,
AC sweep) through an external ngspice binary, and serves the results over
a REST API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := ""
		if env := os.Getenv("VLAB_LOG_LEVEL"); env != "" {
			level = env
		}
		return logging.Init(level, verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// serveCmd runs the HTTP server until interrupted
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulation API server",
	Long: `Loads the configuration, opens the database, resolves the ngspice
binary, and serves the REST API until SIGINT or SIGTERM.`,
	RunE: runServe,
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vlab version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vlab %s\n", Version)
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Logging.Level != "" {
		if err := logging.SetLogLevel(cfg.Logging.Level); err != nil {
			return err
		}
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.L().Info("starting vlab",
		zap.String("version", Version),
		zap.String("config", configPath))
	return srv.Run(ctx, configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "vlab.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
