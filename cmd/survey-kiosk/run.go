package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"rumble-survey/internal/bootstrap"
	"rumble-survey/internal/common/config"
	"rumble-survey/internal/common/logger"
	"rumble-survey/internal/survey/kiosk"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type runOptions struct {
	seed uint64
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the survey kiosk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			defer log.Sync()

			if cmd.Flags().Changed("seed") {
				cfg.Survey.Seed = opts.seed
			}
			return runKiosk(cmd.Context(), cfg, log)
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "question order seed (0 = random)")
	return cmd
}

func runKiosk(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	log.Info("starting survey kiosk", nil)

	app, err := bootstrap.Init(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.WithError(err).Warn("shutdown finished with errors", nil)
		}
	}()

	if cfg.Metrics.Addr != "" {
		srv := startMetricsServer(cfg.Metrics.Addr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	model := kiosk.New(kiosk.Options{
		Machine:      app.Machine,
		Submitter:    app.Handler,
		Identity:     app.Identity,
		ReadyTimeout: config.GetDuration(cfg.Identity.ReadyTimeout),
		Log:          log,
	})
	defer model.Close()

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	log.Info("survey kiosk stopped", nil)
	return nil
}

func startMetricsServer(addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("metrics server listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed", nil)
		}
	}()
	return srv
}
