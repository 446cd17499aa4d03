package redis

import (
	"context"
	"errors"
	"net"
	"testing"

	"stock_etl/internal/platform/config"
)

func TestNewRedisClient_Disabled(t *testing.T) {
	t.Parallel()

	rdb, err := NewRedisClient(context.Background(), config.RedisConfig{Port: "6379"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if rdb != nil {
		t.Error("expected nil client")
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	t.Parallel()

	// grab a free port and release it so nothing is listening there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_, port, _ := net.SplitHostPort(l.Addr().String())
	_ = l.Close()

	rdb, err := NewRedisClient(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: port})
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
	if rdb != nil {
		t.Error("expected nil client")
	}
}
