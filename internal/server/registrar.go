package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oggyb/dating-app/internal/app"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// HealthRegistrar publishes the standard gRPC health service. The overall
// status follows whether the DB and Redis answer.
type HealthRegistrar struct {
	appCtx *app.AppContext
	hs     *health.Server
}

func NewHealthRegistrar(appCtx *app.AppContext) *HealthRegistrar {
	return &HealthRegistrar{appCtx: appCtx, hs: health.NewServer()}
}

// Register attaches the health service to the gRPC server
func (r *HealthRegistrar) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, r.hs)
}

// Refresh pings the dependencies and updates the serving status.
func (r *HealthRegistrar) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if sqlDB, err := r.appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		r.appCtx.Logger.Warn("health: db unreachable")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	if rc := r.appCtx.RedisCache; rc != nil {
		if err := rc.Ping(ctx); err != nil {
			r.appCtx.Logger.Warn("health: redis unreachable", "err", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	r.hs.SetServingStatus("", status)
	return status
}

// Watch refreshes the status every interval until ctx is done, then
// reports NOT_SERVING.
func (r *HealthRegistrar) Watch(ctx context.Context, interval time.Duration) error {
	r.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.hs.Shutdown()
			return nil
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}
