package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careerpath_go/internal/config"
	"careerpath_go/internal/handler"
	"careerpath_go/pkg/database"
	"careerpath_go/pkg/log"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(config.Conf, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run schema migrations before serving")
	return cmd
}

func runServe(cfg config.Config, migrate bool) error {
	if err := handler.RegisterValidators(); err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.close()

	if migrate {
		if err := database.RunMigrate(a.db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: a.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP 服务监听失败: %w", err)
	case <-quit:
	}
	log.Info("接收到停机信号，正在关闭服务...")

	// WebSocket 连接是 hijack 出去的，Shutdown 不会等它们，先主动断开
	a.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP 服务器关闭失败: %w", err)
	}

	log.Info("服务已优雅关闭")
	return nil
}
