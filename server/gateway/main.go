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

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/logging"
	handlers "github.com/alainledesmablanco-dev/interestelar2/server/gateway/handler"
	"github.com/alainledesmablanco-dev/interestelar2/server/gateway/middleware"
	"github.com/alainledesmablanco-dev/interestelar2/server/gateway/pkg/config"
	"github.com/alainledesmablanco-dev/interestelar2/server/gateway/rpc"
)

func main() {
	// 1. 初始化配置
	config.InitConfig()
	cfg := config.AppConfig
	log := logging.New("gateway", cfg.Log)
	defer logging.Flush()

	// 2. 初始化 RPC 客户端
	clients, err := rpc.NewClients(cfg.RPC, log)
	if err != nil {
		log.WithError(err).Fatal("init rpc clients failed")
	}
	defer clients.Close()

	// 3. 设置 Gin
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := NewRouter(&handlers.API{Users: clients.User, Games: clients.Game, Log: log}, []byte(cfg.JWT.Secret))

	// 4. 启动服务
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Gateway running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("gateway stopped")
	}
}

func NewRouter(api *handlers.API, secret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 全局中间件
	r.Use(middleware.Cors())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 路由注册
	apiGroup := r.Group("/api")
	{
		// 鉴权模块
		apiGroup.POST("/auth", api.HandleAuth)

		// 用户模块 (需要登录)
		user := apiGroup.Group("/user")
		user.Use(middleware.AuthMiddleware(secret))
		{
			user.GET("/history", api.HandleGetHistory)
		}

		// 比赛模块 (需要登录)
		match := apiGroup.Group("/match")
		match.Use(middleware.AuthMiddleware(secret))
		{
			match.GET("/rooms", api.HandleListRooms)
			match.POST("/start", api.HandleStartRoom)
		}
	}
	return r
}
