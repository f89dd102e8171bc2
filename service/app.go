package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"postpad/app/controllers"
	"postpad/app/repositories"
	"postpad/app/routes"
	"postpad/app/services"
	"postpad/app/views"
	"postpad/config"
)

// NewHandler wires the post service, renderer and controllers over storage.
func NewHandler(cfg *config.Config, storage repositories.Storage, logger *zap.Logger) (http.Handler, error) {
	repo := repositories.NewStoragePostRepository(storage, cfg.Storage.Key)
	postService := services.NewPostService(repo, services.Options{
		CommentAuthor: cfg.User.CommentAuthor,
		Logger:        logger.Named("store"),
	})

	renderer, err := views.NewRenderer(cfg.User.ID, time.Local)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	postController := controllers.NewPostController(postService, renderer, logger)
	commentController := controllers.NewCommentController(postService, logger)
	return routes.SetupRoutes(postController, commentController, logger), nil
}

// RunAppServer serves the blog until ctx is cancelled, then shuts down
// gracefully.
func RunAppServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	storage, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	handler, err := NewHandler(cfg, storage, logger)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}

	return serve(ctx, listener, handler, cfg.ShutdownTimeout(), logger)
}

func serve(ctx context.Context, listener net.Listener, handler http.Handler, timeout time.Duration, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting blog service", zap.String("addr", listener.Addr().String()))
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", timeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	<-errCh
	logger.Info("Server stopped")
	return nil
}
