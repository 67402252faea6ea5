package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ignis-runtime/ignis-bootstrap/api/rest/server"
	"github.com/ignis-runtime/ignis-bootstrap/api/rest/v1/routes"
	"github.com/ignis-runtime/ignis-bootstrap/internal/config"
	"github.com/ignis-runtime/ignis-bootstrap/internal/logging"
	"github.com/ignis-runtime/ignis-bootstrap/internal/metrics"
	"github.com/ignis-runtime/ignis-bootstrap/internal/ops"
	"github.com/ignis-runtime/ignis-bootstrap/internal/queue"
	"github.com/ignis-runtime/ignis-bootstrap/internal/repository"
)

func emulatorCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "emulator",
		Short: "Run a local control endpoint for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr = httpAddr
			}
			logging.SetLevelFromString(cfg.LogLevel)
			log := logging.Op()

			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			q := queue.New(rdb)

			var repo repository.InvocationRepository
			if cfg.DatabaseURL != "" {
				pgRepo, err := repository.NewPostgresRepository(cfg.DatabaseURL)
				if err != nil {
					return err
				}
				repo = pgRepo
				log.Info("invocation records persisted to postgres")
			} else {
				repo = repository.NewMemoryRepository()
				log.Info("no DATABASE_URL set, keeping invocation records in memory")
			}

			m := metrics.New("ignis_emulator")
			opsSrv := ops.NewServer(cfg.OpsAddr, m)
			go func() {
				if err := opsSrv.ListenAndServe(); err != nil {
					log.Error("ops server stopped", "error", err)
				}
			}()

			srv := server.NewServer(cfg.HTTPAddr, q, repo, m, cfg.InvokeTimeout)
			routes.RegisterRoutes(srv)

			log.Info("control endpoint listening", "addr", cfg.HTTPAddr, "ops_addr", cfg.OpsAddr)
			return srv.Run()
		},
	}

	cmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (overrides HTTP_ADDR)")

	return cmd
}
