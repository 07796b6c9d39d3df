package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chris/tvgrid/internal/logging"
	"github.com/chris/tvgrid/internal/server"
)

var (
	serveAddr  string
	serveRate  float64
	serveBurst int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schedule database over HTTP",
	Long:  "Publishes the local schedule database for remote grids (source.remote_url). Stops on SIGINT or SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
	serveCmd.Flags().Float64Var(&serveRate, "rate", 0, "Maximum API requests per second, 0 for unlimited")
	serveCmd.Flags().IntVar(&serveBurst, "burst", 10, "Request burst allowed above --rate")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// setup finishes even when shutdown was already requested
	database, _, err := openForWrite(context.Background(), cfg.Source.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	logger := logging.NewJSON(cfg.Logging.Level, cmd.ErrOrStderr())

	opts := []server.Option{server.WithLogger(logger)}
	if serveRate > 0 {
		opts = append(opts, server.WithRateLimit(serveRate, serveBurst))
	}
	srv := server.New(database, opts...)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(serveContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", database.Path(), ln.Addr())
	return srv.Serve(ctx, ln)
}

func serveContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
