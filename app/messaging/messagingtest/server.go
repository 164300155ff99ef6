// Package messagingtest runs an in-process pattern server for tests.
package messagingtest

import (
	"context"
	"net"
	"testing"

	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/messaging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1 << 20

// NewClient serves router over an in-memory listener and returns a client wired to it.
// Everything is torn down with the test.
func NewClient(t testing.TB, router *messaging.Router, opts ...grpc.ServerOption) *messaging.Client {
	t.Helper()

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer(opts...)
	messaging.RegisterPatternServer(srv, router)
	go func() {
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to create bufconn client: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
		_ = lis.Close()
	})

	return messaging.NewClient(conn)
}
