package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/oggyb/dating-app/internal/config"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/logger"
)

const metadataKeyRequestID = "x-request-id"

// GRPCServer wraps a grpc.Server with its listen address.
type GRPCServer struct {
	srv  *grpc.Server
	addr string
	log  *slog.Logger
}

// NewGRPCServer builds a server with logging and error mapping
// interceptors and registers all provided services.
func NewGRPCServer(cfg *config.Config, log *slog.Logger, registrars ...Registrar) *GRPCServer {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		UnaryLoggingInterceptor(log),
		UnaryErrorInterceptor(),
	))

	// register all services
	for _, r := range registrars {
		r.Register(srv)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(srv)

	return &GRPCServer{
		srv:  srv,
		addr: fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port),
		log:  log,
	}
}

func (g *GRPCServer) Addr() string { return g.addr }

// Serve accepts connections on lis until Shutdown.
func (g *GRPCServer) Serve(lis net.Listener) error {
	if err := g.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and serves.
func (g *GRPCServer) ListenAndServe() error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.addr, err)
	}
	g.log.Info("starting gRPC server", "addr", g.addr)
	return g.Serve(lis)
}

// Shutdown stops gracefully, forcing a stop when ctx expires first.
func (g *GRPCServer) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		g.log.Warn("grpc force stop")
		g.srv.Stop()
	}
}

// UnaryLoggingInterceptor creates a child logger with request metadata,
// injects it into context and logs each completed call.
func UnaryLoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		child := base.With(
			logger.FieldRequestID, requestIDFromMD(ctx),
			logger.FieldMethod, info.FullMethod,
		)
		ctx = logger.WithContext(ctx, child)

		resp, err := handler(ctx, req)

		attrs := []any{
			"code", status.Code(err).String(),
			logger.FieldLatency, time.Since(start).Milliseconds(),
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		child.Info("unary call completed", attrs...)
		return resp, err
	}
}

// UnaryErrorInterceptor converts application errors to gRPC statuses.
// Errors that already carry a status pass through.
func UnaryErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return resp, err
		}
		return resp, svcErr.GRPCStatus(err)
	}
}

func requestIDFromMD(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(metadataKeyRequestID); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return uuid.New().String()
}
