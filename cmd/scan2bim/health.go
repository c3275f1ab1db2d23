package main

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/scan2bim/internal/monitoring"
)

// healthService exposes grpc.health.v1 so orchestrators can probe the
// service without speaking HTTP.
type healthService struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

func startHealth(addr string) (*healthService, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	h := &healthService{
		server:   grpc.NewServer(),
		health:   health.NewServer(),
		listener: lis,
	}
	h.SetServing(false)
	healthpb.RegisterHealthServer(h.server, h.health)
	go func() {
		monitoring.Logf("gRPC health service listening on %s", lis.Addr())
		if err := h.server.Serve(lis); err != nil {
			monitoring.Logf("gRPC health service stopped: %v", err)
		}
	}()
	return h, nil
}

// SetServing flips the overall and per-service status.
func (h *healthService) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus("scan2bim", status)
}

func (h *healthService) Addr() string { return h.listener.Addr().String() }

func (h *healthService) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
