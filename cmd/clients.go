package cmd

import (
	"github.com/sirupsen/logrus"
	grpcserver "github.com/vibast-solutions/ms-go-athlete-subscriptions/app/grpc"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/reference"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/config"
	"google.golang.org/grpc"
)

type peerClients struct {
	user    *messaging.Client
	catalog *messaging.Client
	auth    *messaging.Client
}

func dialPeers(cfg *config.Config) (*peerClients, error) {
	opts := []grpc.DialOption{grpc.WithUnaryInterceptor(grpcserver.OutgoingRequestIDInterceptor())}

	peers := &peerClients{}
	var err error
	if peers.user, err = messaging.Dial(cfg.Services.UserGRPCAddr, opts...); err != nil {
		return nil, err
	}
	if peers.catalog, err = messaging.Dial(cfg.Services.CatalogGRPCAddr, opts...); err != nil {
		peers.Close()
		return nil, err
	}
	if peers.auth, err = messaging.Dial(cfg.Services.AuthGRPCAddr, opts...); err != nil {
		peers.Close()
		return nil, err
	}
	return peers, nil
}

func (p *peerClients) Close() {
	for _, client := range []*messaging.Client{p.user, p.catalog, p.auth} {
		if client == nil {
			continue
		}
		if err := client.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close peer client")
		}
	}
}

func (p *peerClients) checker(cfg *config.Config, metrics *reference.Metrics) *reference.RemoteChecker {
	return reference.NewRemoteChecker(p.user, p.catalog, cfg.Validation.CheckTimeout, metrics)
}
