package server

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/swamys/hotfoods/internal/auth"
	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/rpc"
	"github.com/swamys/hotfoods/internal/storeconfig"
)

// storeStatusRPC serves hotfoods.StoreStatus with the same services, registry
// and stream tracking as the HTTP API. Its methods are the gRPC versions of
// GET /v1/store-config, PUT /v1/store-config and the status stream.
type storeStatusRPC struct {
	srv *Server
}

var _ rpc.StoreStatusServer = (*storeStatusRPC)(nil)

func (g *storeStatusRPC) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	cfg, err := g.srv.configs.Get(ctx)
	if err != nil {
		return nil, g.statusError("GetStatus", err)
	}
	return g.encode(cfg)
}

// UpdateStatus applies a partial update. Only admins may call it.
func (g *storeStatusRPC) UpdateStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p := auth.FromContext(ctx)
	if p == nil {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	if !p.HasRole(model.RoleAdmin) {
		return nil, status.Error(codes.PermissionDenied, "insufficient permissions")
	}

	u, err := rpc.StructToUpdate(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	cfg, err := g.srv.configs.Update(ctx, u)
	if err != nil {
		return nil, g.statusError("UpdateStatus", err)
	}
	return g.encode(cfg)
}

// WatchStatus sends the current status, then the latest status after every
// committed change. It returns when the client goes away or Shutdown runs.
func (g *storeStatusRPC) WatchStatus(_ *emptypb.Empty, out grpc.ServerStreamingServer[structpb.Struct]) error {
	s := g.srv
	ctx, cancel := context.WithCancel(out.Context())
	st := newStream(cancel)
	if !s.track(st) {
		cancel()
		return status.Error(codes.Unavailable, "server shutting down")
	}
	sub := s.registry.Subscribe(st.offer)
	defer func() {
		sub.Cancel()
		st.close()
		s.untrack(st)
	}()

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return g.statusError("WatchStatus", err)
	}
	if err := g.send(out, cfg); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-st.mailbox:
			if err := g.send(out, cfg); err != nil {
				s.logger.Debug("status watch send failed", "err", err)
				return err
			}
		}
	}
}

func (g *storeStatusRPC) send(out grpc.ServerStreamingServer[structpb.Struct], cfg *model.StoreConfig) error {
	msg, err := g.encode(cfg)
	if err != nil {
		return err
	}
	return out.Send(msg)
}

// encode builds the status message at send time because the status line
// depends on the wall clock.
func (g *storeStatusRPC) encode(cfg *model.StoreConfig) (*structpb.Struct, error) {
	msg, err := rpc.StatusToStruct(g.srv.configs.Status(cfg))
	if err != nil {
		g.srv.logger.Error("encoding status", "err", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return msg, nil
}

// statusError maps service errors onto gRPC codes the way writeServiceError
// maps them onto HTTP statuses.
func (g *storeStatusRPC) statusError(method string, err error) error {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.Is(err, storeconfig.ErrConflictingFlags):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		g.srv.logger.Error("rpc failed", "method", method, "err", err)
		return status.Error(codes.Internal, "internal server error")
	}
}
