package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rumble-survey/internal/bootstrap"
	"rumble-survey/internal/common/observability"

	"github.com/spf13/cobra"
)

// CheckReport is the check command's output.
type CheckReport struct {
	Mode          string   `json:"mode"`
	Backend       string   `json:"backend"`
	Collection    string   `json:"collection"`
	Identity      string   `json:"identity"`
	Questions     int      `json:"questions"`
	Notifications []string `json:"notifications,omitempty"`
	StoreOK       bool     `json:"storeOk"`
	StoreError    string   `json:"storeError,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load configuration, connect, and report the kiosk's mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			defer log.Sync()

			app, err := bootstrap.Init(cmd.Context(), cfg, log, bootstrap.WithObservability(observability.Noop()))
			if err != nil {
				return err
			}
			defer app.Close()

			report := CheckReport{
				Mode:       app.Mode(),
				Backend:    cfg.Store.Backend,
				Collection: cfg.Survey.Collection,
				Identity:   app.Identity.Name(),
				Questions:  app.Bank.Len(),
				StoreOK:    true,
			}
			if cfg.Notifications.SNS.Enabled {
				report.Notifications = append(report.Notifications, "sns")
			}
			if cfg.Notifications.SES.Enabled {
				report.Notifications = append(report.Notifications, "ses")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := app.Check(ctx); err != nil {
				report.StoreOK = false
				report.StoreError = err.Error()
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "mode:       %s\n", report.Mode)
				fmt.Fprintf(out, "collection: %s\n", report.Collection)
				fmt.Fprintf(out, "identity:   %s\n", report.Identity)
				fmt.Fprintf(out, "questions:  %d\n", report.Questions)
				if len(report.Notifications) > 0 {
					fmt.Fprintf(out, "notify:     %v\n", report.Notifications)
				}
				if report.StoreOK {
					fmt.Fprintln(out, "store:      ok")
				} else {
					fmt.Fprintf(out, "store:      %s\n", report.StoreError)
				}
			}

			if !report.StoreOK {
				return fmt.Errorf("store check failed")
			}
			return nil
		},
	}
	return cmd
}
