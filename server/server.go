package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"acoustid/cache"
	"acoustid/config"
	"acoustid/core/fingerprint"
	"acoustid/core/lookup"
	"acoustid/core/params"
	"acoustid/core/ratelimit"
	"acoustid/core/submit"
	"acoustid/db"
	"acoustid/logger"
	"acoustid/repository"
)

// Start initializes and starts the HTTP server. It returns once the server
// has been shut down by SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	// Connect to the database
	if err := db.ConnectGormDB(cfg); err != nil {
		return err
	}
	defer db.CloseGormDB()

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		return err
	}
	defer db.CloseRedis()
	logger.Info("[Server] connected to Redis", logger.String("addr", cfg.RedisHost+":"+cfg.RedisPort))

	limits, err := config.NewRateLimitStore(cfg.RateLimitFile, cfg.MaxRequestsPerSecond)
	if err != nil {
		return fmt.Errorf("failed to load rate limits: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RateLimitFile != "" {
		go func() {
			if err := limits.Watch(ctx); err != nil {
				logger.Error("[Server] rate limit watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	applicationRepo := repository.NewGormApplicationRepository(db.GormDB)
	accountRepo := repository.NewGormAccountRepository(db.GormDB)
	trackRepo := repository.NewGormTrackRepository(db.GormDB)
	metadataRepo := repository.NewGormMetadataRepository(db.GormDB)
	metaRepo := repository.NewGormMetaRepository(db.GormDB)
	submissionRepo := repository.NewGormSubmissionRepository(db.GormDB)

	searcher := fingerprint.NewIndexSearcher(cfg.IndexURL, cfg.IndexTimeout, &http.Client{})
	stats := cache.NewLookupStats(db.RedisClient)

	// 初始化处理器
	api := NewAPIHandler(
		params.NewParser(applicationRepo, accountRepo, cfg.WebsiteSecret, cfg.MaxDurationDiffAllowed),
		ratelimit.NewPolicy(cache.NewRateLimiter(db.RedisClient), limits),
		lookup.NewService(searcher, trackRepo, metadataRepo, metaRepo, stats, cfg.LookupConcurrency),
		submit.NewIngestor(submissionRepo, cache.NewSubmissionNotifier(db.RedisClient), cfg.SubmissionWaitMax, cfg.SubmissionWaitInterval),
	)
	health := NewHealthHandler(cfg.ClusterRole, cfg.ShutdownFile)

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(api, health),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 在goroutine中启动服务器
	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] listening", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 等待中断信号
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("[Server] shutting down")

	// 创建一个5秒超时的上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("[Server] stopped")
	return nil
}
