package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ignis-runtime/ignis-bootstrap/internal/cache"
	"github.com/ignis-runtime/ignis-bootstrap/internal/config"
	"github.com/ignis-runtime/ignis-bootstrap/internal/handler"
	"github.com/ignis-runtime/ignis-bootstrap/internal/logging"
	"github.com/ignis-runtime/ignis-bootstrap/internal/metrics"
	"github.com/ignis-runtime/ignis-bootstrap/internal/ops"
	"github.com/ignis-runtime/ignis-bootstrap/internal/poller"
	"github.com/ignis-runtime/ignis-bootstrap/internal/runtimeapi"
	"github.com/ignis-runtime/ignis-bootstrap/internal/staging"
	"github.com/ignis-runtime/ignis-bootstrap/internal/storage"
)

func runCmd() *cobra.Command {
	var (
		endpoint    string
		handlerRef  string
		taskRoot    string
		opsAddr     string
		moduleCache bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the invocation poller against a control endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("endpoint") {
				cfg.RuntimeAPI = endpoint
			}
			if cmd.Flags().Changed("handler") {
				cfg.Handler = handlerRef
			}
			if cmd.Flags().Changed("task-root") {
				cfg.TaskRoot = taskRoot
			}
			logging.SetLevelFromString(cfg.LogLevel)
			log := logging.Op()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := runtimeapi.NewClient(cfg.RuntimeAPI)

			if cfg.CodeKey != "" {
				store, err := storage.NewS3BundleStore(storage.S3Config{
					Endpoint:        cfg.S3Endpoint,
					AccessKeyID:     cfg.S3AccessKeyID,
					SecretAccessKey: cfg.S3SecretAccessKey,
					BucketName:      cfg.S3Bucket,
					Region:          cfg.S3Region,
				})
				if err != nil {
					return reportInitError(ctx, client, err)
				}
				path, err := staging.Stage(ctx, store, cfg.CodeKey, cfg.TaskRoot)
				if err != nil {
					return reportInitError(ctx, client, err)
				}
				checksum, err := staging.Fingerprint(path)
				if err != nil {
					return reportInitError(ctx, client, err)
				}
				log.Info("staged code bundle", "key", cfg.CodeKey, "path", path, "checksum", checksum)
			}

			var moduleCacheClient *cache.RedisCache
			if moduleCache {
				moduleCacheClient = cache.NewRedisCache(cfg.RedisAddr)
			}

			resolver := &handler.Resolver{
				Registry: handler.NewRegistry(),
				TaskRoot: cfg.TaskRoot,
				Cache:    moduleCacheClient,
			}
			h, err := resolver.Resolve(ctx, cfg.Handler)
			if err != nil {
				return reportInitError(ctx, client, err)
			}
			if wh, ok := h.(*handler.WasmHandler); ok {
				log.Info("handler resolved", "handler", cfg.Handler, "module_checksum", wh.Checksum())
			} else {
				log.Info("handler resolved", "handler", cfg.Handler)
			}

			m := metrics.New("ignis_host")
			if opsAddr != "" {
				opsSrv := ops.NewServer(opsAddr, m)
				go func() {
					if err := opsSrv.ListenAndServe(); err != nil {
						log.Error("ops server stopped", "error", err)
					}
				}()
				defer opsSrv.Shutdown(context.Background())
			}

			p := poller.New(poller.Options{
				Client:  client,
				Handler: h,
				Log:     log,
				Metrics: m,
			})

			log.Info("polling control endpoint", "endpoint", cfg.RuntimeAPI, "handler", cfg.Handler)
			if err := p.Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					log.Info("shutting down")
					return nil
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "control endpoint address (overrides IGNIS_RUNTIME_API)")
	cmd.Flags().StringVar(&handlerRef, "handler", "", "handler reference (overrides IGNIS_HANDLER)")
	cmd.Flags().StringVar(&taskRoot, "task-root", "", "handler code directory (overrides IGNIS_TASK_ROOT)")
	cmd.Flags().StringVar(&opsAddr, "ops-addr", "", "address for the /healthz and /metrics listener (disabled when empty)")
	cmd.Flags().BoolVar(&moduleCache, "module-cache", false, "cache compiled handler modules in Redis")

	return cmd
}

// reportInitError tells the provider the host could not start, then
// surfaces the original error.
func reportInitError(ctx context.Context, client *runtimeapi.Client, err error) error {
	invErr := &runtimeapi.InvocationError{
		Type:    "Runtime.InitError",
		Message: err.Error(),
	}
	if postErr := client.PostInitError(ctx, invErr); postErr != nil {
		logging.Op().Warn("failed to report init error", "error", postErr)
	}
	return err
}
