package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/rpc"
)

var _ StatusClient = (*GRPCClient)(nil)

// GRPCClient talks to the hotfoods.StoreStatus service and the standard
// gRPC health service.
type GRPCClient struct {
	conn   *grpc.ClientConn
	status *rpc.StoreStatusClient
	health healthpb.HealthClient
	token  string
}

// NewGRPCClient connects to addr. A non-empty token is sent as bearer
// metadata on every call. Extra dial options are appended to the insecure
// transport default.
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		status: rpc.NewStoreStatusClient(conn),
		health: healthpb.NewHealthClient(conn),
		token:  token,
	}, nil
}

func (c *GRPCClient) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

// Check returns the serving status of service ("" for the whole server),
// e.g. "SERVING".
func (c *GRPCClient) Check(ctx context.Context, service string) (string, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return "", fmt.Errorf("health check: %w", err)
	}
	return resp.GetStatus().String(), nil
}

func (c *GRPCClient) GetStoreConfig(ctx context.Context) (*model.StatusPayload, error) {
	msg, err := c.status.GetStatus(c.outgoing(ctx), &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return rpc.StructToStatus(msg)
}

func (c *GRPCClient) UpdateStoreConfig(ctx context.Context, u model.StoreConfigUpdate) (*model.StatusPayload, error) {
	in, err := rpc.UpdateToStruct(u)
	if err != nil {
		return nil, err
	}
	msg, err := c.status.UpdateStatus(c.outgoing(ctx), in)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return rpc.StructToStatus(msg)
}

func (c *GRPCClient) WatchStoreStatus(ctx context.Context, fn func(*model.StatusPayload) error) error {
	watch, err := c.status.WatchStatus(c.outgoing(ctx), &emptypb.Empty{})
	if err != nil {
		return fmt.Errorf("watch status: %w", err)
	}
	for {
		msg, err := watch.Recv()
		if errors.Is(err, io.EOF) {
			return ErrStreamClosed
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("watch status: %w", err)
		}
		p, err := rpc.StructToStatus(msg)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
