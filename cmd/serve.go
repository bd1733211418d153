package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/llnl/mummi-workflow-core/pkg/bootstrap"
	"github.com/llnl/mummi-workflow-core/pkg/config"
	"github.com/llnl/mummi-workflow-core/pkg/httpapi"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the workflow engine: cron-driven update/start_jobs ticks plus a status API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		sys, err := bootstrap.Init(ctx, cfg)
		if err != nil {
			return err
		}
		sys.Loop.Start()

		addr := cfg.HTTP.Addr
		if addr == "" {
			addr = ":8080"
		}
		engine := httpapi.NewEngine(sys.Loop)
		srv := &http.Server{Addr: addr, Handler: engine}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("serve: http server error: %v", err)
			}
		}()
		log.Infof("serve: listening on %s", addr)

		<-ctx.Done()
		log.Info("serve: shutting down")
		sys.Loop.Stop(context.Background())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	},
}
