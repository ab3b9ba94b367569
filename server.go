package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukane-philemon/studentmarks/api"
	"github.com/ukane-philemon/studentmarks/internal/admin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the student records HTTP API",
		Long: `Serves the student records over a JSON HTTP API. Mutations require an admin
token from POST /login; set server.admin_password_hash (see hash-password) to
enable admin login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().String("port", "", "Port to listen on")
	a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Ensure graceful shutdown by capturing SIGINT and SIGTERM signals.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, shutdownStorage, err := a.openRepository(ctx)
	if err != nil {
		return err
	}

	var adminRepo admin.Repository
	if a.cfg.Server.AdminPasswordHash != "" {
		authenticator, err := admin.NewAuthenticator(a.cfg.Server.AdminUsername, a.cfg.Server.AdminPasswordHash)
		if err != nil {
			shutdownStorage(context.Background())
			return fmt.Errorf("admin.NewAuthenticator error: %w", err)
		}
		adminRepo = authenticator
	} else {
		a.logger.Warn("server.admin_password_hash is not set, admin login and mutations are disabled")
	}

	server, err := api.NewServer(repo, adminRepo, a.cfg.Server.LoginRateLimit, a.logger)
	if err != nil {
		shutdownStorage(context.Background())
		return fmt.Errorf("api.NewServer error: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Student marks API has started successfully", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer.ListenAndServe error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP server shutdown error", zap.Error(err))
		}

		if repo.Dirty() {
			if err := repo.Flush(); err != nil {
				a.logger.Error("Unsaved student record changes were lost", zap.Error(err))
			}
		}

		return shutdownStorage(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("Student marks API shutdown successfully")

	return nil
}
