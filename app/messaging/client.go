package messaging

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client sends pattern requests to one peer service.
type Client struct {
	conn   grpc.ClientConnInterface
	closer func() error
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial creates a lazily connected client for addr.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", addr, err)
	}
	return &Client{conn: conn, closer: conn.Close}, nil
}

// Send performs one request/response exchange. The caller owns the deadline.
func (c *Client) Send(ctx context.Context, pattern Pattern, data map[string]interface{}) (*structpb.Value, error) {
	req, err := NewRequest(pattern, data)
	if err != nil {
		return nil, err
	}

	resp := &structpb.Value{}
	if err := c.conn.Invoke(ctx, SendMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
