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
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"golang.org/x/sync/errgroup"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/logging"
	"github.com/alainledesmablanco-dev/interestelar2/server/game-service/internal/core"
	"github.com/alainledesmablanco-dev/interestelar2/server/game-service/internal/dao"
	"github.com/alainledesmablanco-dev/interestelar2/server/game-service/internal/handler"
	"github.com/alainledesmablanco-dev/interestelar2/server/game-service/internal/mq"
	"github.com/alainledesmablanco-dev/interestelar2/server/game-service/pkg/config"
)

func main() {
	config.InitConfig()
	cfg := config.AppConfig
	log := logging.New("game-service", cfg.Log)
	defer logging.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis 房间目录, 连不上时只用本地注册表
	var dir core.Directory
	store, err := dao.NewRoomStore(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, room directory disabled")
	} else {
		defer store.Close()
		dir = store
	}

	var results core.ResultPublisher
	producer, err := mq.NewProducer(cfg.MQ)
	if err != nil {
		log.WithError(err).Warn("rabbitmq unavailable, room results will not be recorded")
	} else {
		defer producer.Close()
		results = producer
	}

	manager := core.NewManager(core.ManagerConfig{
		Room: core.Settings{
			TickRate:     cfg.Server.TickRate,
			SnapshotRate: cfg.Server.SnapshotRate,
			Tuning:       cfg.Game,
		},
		IdleTTL:       cfg.Room.IdleTTL,
		SweepInterval: cfg.Room.SweepInterval,
		CodeLength:    cfg.Room.CodeLength,
	}, dir, results, log)

	ws := &core.WSHandler{Manager: manager, Secret: []byte(cfg.JWT.Secret), Log: log}

	r := gin.New()
	r.Use(gin.Recovery(), cors())
	r.GET("/ws", ws.HandleWebSocket)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": len(manager.ListRooms())})
	})
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}

	grpcSrv := handler.NewGRPCServer(&handler.GameServiceServer{Manager: manager, Directory: dir, Log: log})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Game Service running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return handler.ServeGRPC(grpcSrv, cfg.Server.GrpcPort, log)
	})
	g.Go(func() error {
		return manager.RunSweeper(ctx)
	})
	if cfg.Server.StatsAddr != "" {
		viewer.SetConfiguration(viewer.WithAddr(cfg.Server.StatsAddr))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		manager.Shutdown("server_shutdown")
		grpcSrv.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("game service stopped")
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
