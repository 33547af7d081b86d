package rpc

import (
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/gateway/pkg/config"
)

// Clients holds the gateway's connections to the backend services.
type Clients struct {
	User pb.UserServiceClient
	Game pb.GameServiceClient

	conns []*grpc.ClientConn
}

func NewClients(cfg config.RPCConfig, log *logrus.Entry) (*Clients, error) {
	// 1. 连接 User Service
	connUser, err := grpc.NewClient(cfg.UserServiceAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	log.Infof("User Service client targets %s", cfg.UserServiceAddr)

	// 2. 连接 Game Service
	connGame, err := grpc.NewClient(cfg.GameServiceAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		connUser.Close()
		return nil, err
	}
	log.Infof("Game Service client targets %s", cfg.GameServiceAddr)

	return &Clients{
		User:  pb.NewUserServiceClient(connUser),
		Game:  pb.NewGameServiceClient(connGame),
		conns: []*grpc.ClientConn{connUser, connGame},
	}, nil
}

func (c *Clients) Close() error {
	var errs []error
	for _, conn := range c.conns {
		errs = append(errs, conn.Close())
	}
	return errors.Join(errs...)
}
