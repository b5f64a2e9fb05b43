package api

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/review-intel/internal/config"
)

type echoService struct{}

func (echoService) Analyze(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, ok := req.GetFields()["reviews"]; !ok {
		return nil, status.Error(codes.InvalidArgument, "reviews must not be empty")
	}
	return structpb.NewStruct(map[string]any{"run_id": "run-1"})
}

func TestServerServesAnalyzeAndHealth(t *testing.T) {
	srv, err := NewServer(nil, config.ServerConfig{Address: "127.0.0.1:0", GracefulTimeout: time.Second}, echoService{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	go func() { _ = srv.Start() }()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), srv.GracefulTimeout())
		defer cancel()
		srv.Shutdown(ctx)
	}()

	conn, err := grpc.NewClient(srv.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewReviewIntelligenceClient(conn)
	req, _ := structpb.NewStruct(map[string]any{"reviews": []any{}})
	resp, err := client.Analyze(ctx, req)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.GetFields()["run_id"].GetStringValue() != "run-1" {
		t.Fatalf("unexpected response %v", resp)
	}

	_, err = client.Analyze(ctx, &structpb.Struct{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceDesc.ServiceName})
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("unexpected health status %v", health.GetStatus())
	}
}
