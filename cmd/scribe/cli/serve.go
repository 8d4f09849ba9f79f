package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scribehub/scribe/internal/server"
	"github.com/scribehub/scribe/internal/stats"
	"github.com/scribehub/scribe/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port      int
		host      string
		redisURL  string
		rateLimit int
		dev       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP server that exposes the stats, workflow, user, and key administration endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, redisURL, rateLimit, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().StringVar(&redisURL, "redis-url", "redis://localhost:6379/0", "Redis URL for community stats")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 120, "requests per minute per IP (0 disables)")
	cmd.Flags().BoolVar(&dev, "dev", false, "development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("redis.url", cmd.Flags().Lookup("redis-url"))

	return cmd
}

func runServe(host string, port int, redisURL string, rateLimit int, dev bool) error {
	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("init key store: %w", err)
	}
	defer st.Close()
	logger.Info("key store initialized", "path", resolveDataDir())

	if u := viper.GetString("redis.url"); u != "" {
		redisURL = u
	}
	statsStore, err := stats.New(redisURL)
	if err != nil {
		return fmt.Errorf("init stats store: %w", err)
	}
	defer statsStore.Close()

	warnIfNoAdmin(st, logger)

	cfg := server.DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	cfg.RateLimit = rateLimit
	if p := viper.GetInt("server.port"); p != 0 {
		cfg.Port = p
	}
	if h := viper.GetString("server.host"); h != "" {
		cfg.Host = h
	}

	srv := server.New(cfg, st, statsStore, logger)

	fmt.Printf("→ Scribe listening on http://%s:%d\n", cfg.Host, cfg.Port)
	fmt.Printf("→ Stats:  http://%s:%d/\n", cfg.Host, cfg.Port)
	fmt.Printf("→ Health: http://%s:%d/healthz\n", cfg.Host, cfg.Port)

	return srv.ListenAndServe()
}

// warnIfNoAdmin nudges the operator toward the bootstrap path on first run.
func warnIfNoAdmin(st *store.Store, logger *slog.Logger) {
	n, err := st.CountKeys(cmdContext())
	if err != nil {
		logger.Warn("failed to count api keys", "error", err)
		return
	}
	if n == 0 {
		logger.Warn("no api keys issued - run: scribe key create --name <you> --admin")
	}
}
