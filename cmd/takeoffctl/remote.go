package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"takeoff/internal/common/config"
	"takeoff/internal/takeoff/client"
	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/persist"
)

// remoteFlags: адрес сервиса и ключ документа.
type remoteFlags struct {
	server  string
	token   string
	project int64
	file    int64
}

func (f *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", envOr("TAKEOFF_SERVER", "http://localhost:3000/api/v1"), "takeoff service base URL")
	cmd.Flags().StringVar(&f.token, "token", os.Getenv("TAKEOFF_TOKEN"), "bearer token")
	cmd.Flags().Int64Var(&f.project, "project", 0, "project id")
	cmd.Flags().Int64Var(&f.file, "file", 0, "file id")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("file")
}

func (f *remoteFlags) key() (models.DocumentKey, error) {
	if f.project <= 0 || f.file <= 0 {
		return models.DocumentKey{}, fmt.Errorf("project and file must be positive")
	}
	return models.DocumentKey{ProjectID: f.project, FileID: f.file}, nil
}

func (f *remoteFlags) client() *client.Client {
	return client.New(f.server, client.WithToken(f.token))
}

// ============================================================
// push
// ============================================================

func newPushCmd() *cobra.Command {
	var flags remoteFlags
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "push <doc.json>",
		Short: "Upload a takeoff document to the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := flags.key()
			if err != nil {
				return err
			}
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("timeout") {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				timeout = cfg.SaveTimeoutDuration()
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			saver := persist.NewSaver(flags.client(),
				persist.WithTimeout(timeout),
				persist.WithLogger(logger),
				persist.WithStatus(func(ev persist.Event) {
					logger.Info("save status", "key", ev.Key.String(), "status", ev.Status.String())
				}),
			)
			saver.Enqueue(key, doc)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout+time.Second)
			defer cancel()
			if err := saver.Flush(ctx); err != nil {
				return err
			}
			if status, err := saver.State(key); status == persist.Failed {
				return fmt.Errorf("push %s: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %s\n", key)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "save timeout (default from SAVE_TIMEOUT)")
	return cmd
}

// ============================================================
// pull
// ============================================================

func newPullCmd() *cobra.Command {
	var flags remoteFlags
	var out string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download a takeoff document from the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := flags.key()
			if err != nil {
				return err
			}
			doc, err := flags.client().Load(cmd.Context(), key)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
