package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"provisioning-portal/internal/api"
	"provisioning-portal/internal/catalog"
	"provisioning-portal/internal/config"
	"provisioning-portal/internal/logger"
	"provisioning-portal/internal/pipeline"
	"provisioning-portal/internal/portal"
	"provisioning-portal/internal/telemetry"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func serveCmd(cfg *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the operator page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.Setup(ctx, "provisioning-portal", cfg.OTelEndpoint)
			if err != nil {
				return fmt.Errorf("setup tracing: %w", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(flushCtx); err != nil {
					logger.Warn("Failed to flush traces: %v", err)
				}
			}()

			p, src, err := buildPortal(*cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			app := api.NewApp(p, src)
			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting provisioning portal on %s...", cfg.Addr)
				errCh <- app.Listen(cfg.Addr)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("failed to start server: %w", err)
			case <-ctx.Done():
			}

			logger.Info("Shutting down provisioning portal")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides PORTAL_ADDR)")
	return cmd
}

func triggerCmd(cfg *config.Config, name string) *cobra.Command {
	var (
		systems []string
		version string
	)
	op := portal.Operation(name)

	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Trigger the %sing pipeline once", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, src, err := buildPortal(*cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx := cmd.Context()
			for _, s := range systems {
				ok, err := catalog.HasSystem(ctx, src, s)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("unknown system %q", s)
				}
			}
			if version != "" {
				ok, err := catalog.HasVersion(ctx, src, version)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("unknown version %q", version)
				}
			}
			p.SetSelection(systems, version)

			var id string
			if op == portal.OpProvision {
				id, err = p.Provision(ctx)
			} else {
				id, err = p.Deprovision(ctx)
			}

			out := cmd.OutOrStdout()
			var perr *portal.Error
			if errors.As(err, &perr) {
				fmt.Fprintln(out, failureStyle.Render(perr.Message))
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (operation %s)\n", successStyle.Render(portal.MsgSucceeded), id)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&systems, "systems", nil, "Systems to "+name+" (comma separated)")
	cmd.Flags().StringVar(&version, "version", "", "Version id")
	return cmd
}

func catalogCmd(cfg *config.Config) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the selectable systems and versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := loadCatalog(*cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			systems, err := src.Systems(ctx)
			if err != nil {
				return err
			}
			versions, err := src.Versions(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asYAML {
				data, err := catalog.Marshal(systems, versions)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			st := table.New().Headers("SYSTEM", "DISPLAY NAME").StyleFunc(styleCell)
			for _, s := range systems {
				st.Row(s.Name, s.DisplayName)
			}
			vt := table.New().Headers("VERSION ID", "VERSION").StyleFunc(styleCell)
			for _, v := range versions {
				vt.Row(v.ID, v.Version)
			}

			fmt.Fprintln(out, st.Render())
			fmt.Fprintln(out, vt.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the catalog in the PORTAL_CATALOG_FILE format")
	return cmd
}

func styleCell(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}

func loadCatalog(cfg config.Config) (catalog.Source, error) {
	if cfg.CatalogFile == "" {
		return catalog.Default(), nil
	}
	src, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded catalog from %s", cfg.CatalogFile)
	return src, nil
}

func buildPortal(cfg config.Config) (*portal.Portal, catalog.Source, error) {
	src, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Pipeline.Token == "" {
		logger.Warn("AZURE_DEVOPS_TOKEN is not set; pipeline requests will be sent with an empty bearer token")
	}
	client := pipeline.NewClient(pipeline.Config{
		BaseURL: cfg.Pipeline.BaseURL,
		Token:   cfg.Pipeline.Token,
		Timeout: cfg.Pipeline.Timeout,
	})
	return portal.New(client, cfg.SuccessResetDelay), src, nil
}
