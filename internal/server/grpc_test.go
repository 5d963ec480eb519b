package server

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/swamys/hotfoods/internal/auth"
	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/rpc"
)

// dialGRPC serves env over an in-memory listener and returns a connection
// to it. The server and connection are closed on cleanup.
func dialGRPC(t *testing.T, env *testEnv) (*grpc.ClientConn, *health.Server) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, hs := env.srv.NewGRPCServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, hs
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func TestGRPCHealth(t *testing.T) {
	conn, hs := dialGRPC(t, newTestEnv(t))
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, svc := range []string{"", rpc.StoreStatusService} {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("Check(%q): %v", svc, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("Check(%q) = %v, want SERVING", svc, resp.GetStatus())
		}
	}

	if _, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown"}); status.Code(err) != codes.NotFound {
		t.Fatalf("unknown service: %v", err)
	}

	hs.Shutdown()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check after shutdown: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status after shutdown = %v", resp.GetStatus())
	}
}

func TestGRPCStoreStatus_Get(t *testing.T) {
	env := newTestEnv(t)
	conn, _ := dialGRPC(t, env)
	client := rpc.NewStoreStatusClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := client.GetStatus(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	got, err := rpc.StructToStatus(msg)
	if err != nil {
		t.Fatalf("StructToStatus: %v", err)
	}
	cfg, err := env.configs.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := env.configs.Status(cfg)
	if got.CurrentStatusMsg != want.CurrentStatusMsg || got.Description != model.DefaultDescription {
		t.Fatalf("status = %+v, want %+v", got, want)
	}
}

func TestGRPCStoreStatus_Update(t *testing.T) {
	env := newTestEnv(t)
	conn, _ := dialGRPC(t, env)
	client := rpc.NewStoreStatusClient(conn)
	userToken := env.userToken(t, "meena", model.RoleUser)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	open, err := rpc.UpdateToStruct(model.StoreConfigUpdate{IsShopOpen: model.Bool(true)})
	if err != nil {
		t.Fatal(err)
	}
	both, err := rpc.UpdateToStruct(model.StoreConfigUpdate{IsShopOpen: model.Bool(true), IsCooking: model.Bool(true)})
	if err != nil {
		t.Fatal(err)
	}
	badType, err := structpb.NewStruct(map[string]any{"isCooking": "soon"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		ctx  context.Context
		in   *structpb.Struct
		want codes.Code
	}{
		{"anonymous", ctx, open, codes.Unauthenticated},
		{"unknown token", withToken(ctx, "nope"), open, codes.Unauthenticated},
		{"user", withToken(ctx, userToken), open, codes.PermissionDenied},
		{"conflicting flags", withToken(ctx, testAdminToken), both, codes.InvalidArgument},
		{"wrong field type", withToken(ctx, testAdminToken), badType, codes.InvalidArgument},
		{"admin", withToken(ctx, testAdminToken), open, codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.UpdateStatus(tt.ctx, tt.in)
			if status.Code(err) != tt.want {
				t.Fatalf("UpdateStatus: %v, want %v", err, tt.want)
			}
		})
	}

	cfg, err := env.configs.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.IsShopOpen || cfg.IsCooking {
		t.Fatalf("stored config = %+v", cfg)
	}
}

func TestGRPCStoreStatus_Watch(t *testing.T) {
	env := newTestEnv(t)
	conn, _ := dialGRPC(t, env)
	client := rpc.NewStoreStatusClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	watch, err := client.WatchStatus(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("WatchStatus: %v", err)
	}
	recv := func() *model.StatusPayload {
		t.Helper()
		msg, err := watch.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		p, err := rpc.StructToStatus(msg)
		if err != nil {
			t.Fatalf("StructToStatus: %v", err)
		}
		return p
	}

	if first := recv(); first.IsCooking {
		t.Fatalf("initial status = %+v", first)
	}
	waitFor(t, "watch registered", func() bool { return env.srv.OpenStreams() == 1 })

	if _, err := env.configs.Update(ctx, model.StoreConfigUpdate{IsCooking: model.Bool(true)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if next := recv(); !next.IsCooking {
		t.Fatalf("pushed status = %+v", next)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	if err := env.srv.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := watch.Recv(); err != io.EOF {
		t.Fatalf("Recv after shutdown = %v, want io.EOF", err)
	}
	if n := env.srv.OpenStreams(); n != 0 {
		t.Fatalf("OpenStreams after shutdown = %d", n)
	}

	late, err := client.WatchStatus(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("WatchStatus after shutdown: %v", err)
	}
	if _, err := late.Recv(); status.Code(err) != codes.Unavailable {
		t.Fatalf("Recv on late watch = %v, want Unavailable", err)
	}
}

// stubHandler is a no-op gRPC handler used in interceptor tests.
func stubHandler(_ context.Context, _ any) (any, error) {
	return "ok", nil
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(quietLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := interceptor(context.Background(), nil, info, stubHandler)
	if err != nil || resp != "ok" {
		t.Fatalf("got %v, %v", resp, err)
	}

	_, err = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	interceptor := LoggingInterceptor(quietLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	want := status.Error(codes.Unavailable, "down")

	_, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, want
	})
	if err != want {
		t.Fatalf("error = %v, want %v", err, want)
	}
	resp, err := interceptor(context.Background(), nil, info, stubHandler)
	if err != nil || resp != "ok" {
		t.Fatalf("got %v, %v", resp, err)
	}
}

func TestAuthInterceptor(t *testing.T) {
	resolve := func(_ context.Context, token string) (*auth.Principal, error) {
		switch token {
		case "good":
			return &auth.Principal{UserID: "u1", Role: model.RoleStaff}, nil
		case "broken":
			return nil, errors.New("store down")
		}
		return nil, auth.ErrUnauthenticated
	}
	interceptor := AuthInterceptor(resolve, quietLogger())
	info := &grpc.UnaryServerInfo{FullMethod: rpc.UpdateStatusMethod}
	var seen *auth.Principal
	handler := func(ctx context.Context, _ any) (any, error) {
		seen = auth.FromContext(ctx)
		return "ok", nil
	}

	tests := []struct {
		name   string
		header string
		want   codes.Code
		role   model.Role
	}{
		{"no header", "", codes.OK, ""},
		{"session", "Bearer good", codes.OK, model.RoleStaff},
		{"wrong scheme", "Basic good", codes.Unauthenticated, ""},
		{"unknown token", "Bearer stale", codes.Unauthenticated, ""},
		{"resolver failure", "Bearer broken", codes.Internal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			ctx := context.Background()
			if tt.header != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.header))
			}
			_, err := interceptor(ctx, nil, info, handler)
			if status.Code(err) != tt.want {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.role == "" {
				if seen != nil {
					t.Fatalf("principal = %+v, want none", seen)
				}
				return
			}
			if seen == nil || seen.Role != tt.role {
				t.Fatalf("principal = %+v, want role %s", seen, tt.role)
			}
		})
	}
}

func TestStreamRecoveryInterceptor(t *testing.T) {
	interceptor := StreamRecoveryInterceptor(quietLogger())
	info := &grpc.StreamServerInfo{FullMethod: rpc.WatchStatusMethod, IsServerStream: true}

	err := interceptor(nil, nil, info, func(any, grpc.ServerStream) error {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
	if err := interceptor(nil, nil, info, func(any, grpc.ServerStream) error { return nil }); err != nil {
		t.Fatalf("passthrough: %v", err)
	}
}
