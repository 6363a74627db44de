package http

import (
	"context"
	"errors"
	"net"
	nethttp "net/http"
	"time"

	"choria/internal/shared/transport/http/middleware"
	"choria/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server 管理端 HTTP，只监听内网地址。
type Server struct {
	engine *gin.Engine
	srv    *nethttp.Server
	log    logx.Logger
}

func NewHttpServer(addr string, engine *gin.Engine, logger logx.Logger) *Server {
	if logger == nil {
		logger = logx.Nop()
	}
	if engine == nil {
		engine = gin.New()
		engine.Use(gin.Recovery())
	}
	engine.Use(middleware.AccessLog(logger))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		engine: engine,
		srv: &nethttp.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: logger,
	}
}

// Start 先同步 listen，端口冲突直接返回，serve 在后台跑。
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			s.log.Error("admin http stopped", zap.Error(err))
		}
	}()
	s.log.Info("admin http listening", zap.String("addr", ln.Addr().String()))
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Handler() nethttp.Handler {
	return s.engine
}
