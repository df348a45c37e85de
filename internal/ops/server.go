// Package ops 提供运维侧 HTTP 接口：健康检查 + 决策管线预览。
// 预览接口不经过队列与外部服务，直接对给定输入跑一遍管线，
// 用于联调验证与线上问题复现。
package ops

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/config"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

// Server 运维 HTTP 服务
type Server struct {
	appName    string
	engine     *outfit.Engine
	httpServer *http.Server
	log        logger.Logger
}

// NewServer 创建运维服务（与 Worker 共用同一个管线引擎实例）
func NewServer(cfg *config.Config, engine *outfit.Engine, log logger.Logger) *Server {
	s := &Server{
		appName: cfg.App.Name,
		engine:  engine,
		log:     log,
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Ops.Addr,
		Handler: s.setupRouter(),
	}

	return s
}

// setupRouter 配置所有路由
func (s *Server) setupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": s.appName,
			"message": "Service is running",
		})
	})

	v1 := r.Group("/api/v1")
	{
		match := v1.Group("/match")
		{
			match.POST("/preview", s.preview)
		}
	}

	return r
}

// Start 启动 HTTP 服务（阻塞直到关闭）
func (s *Server) Start() error {
	s.log.Infof(context.Background(), "[Ops] HTTP server listening on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops server failed: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
