package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/logging"
	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/internal/dao"
	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/internal/handler"
	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/internal/mq"
	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/pkg/config"
)

func main() {
	// 1. 加载配置
	config.InitConfig()
	cfg := config.AppConfig
	log := logging.New("user-service", cfg.Log)
	defer logging.Flush()

	// 2. 初始化数据库
	store, err := dao.OpenMySQL(cfg.MySQL.DSN())
	if err != nil {
		log.WithError(err).Fatal("MySQL connect failed")
	}
	defer store.Close()

	// 3. 初始化 MQ Consumer
	consumer, err := mq.NewConsumer(cfg.MQ, store, log)
	if err != nil {
		log.WithError(err).Fatal("MQ connect failed")
	}
	defer consumer.Close()

	// 4. 启动 gRPC 服务
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}
	s := grpc.NewServer()
	pb.RegisterUserServiceServer(s, &handler.UserService{
		Store:    store,
		Secret:   []byte(cfg.JWT.Secret),
		TokenTTL: cfg.JWT.TTL(),
		Log:      log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("User Service listening on :%d", cfg.Server.Port)
		return s.Serve(lis)
	})
	g.Go(func() error {
		return consumer.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		s.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("user service stopped")
	}
}
