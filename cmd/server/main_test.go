package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stock_etl/internal/platform/config"
	jwtmw "stock_etl/internal/platform/jwt"
)

func setSQLiteEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.db")
	t.Setenv(config.EnvDBDriver, config.DriverSQLite)
	t.Setenv(config.EnvDatabase, path)
	t.Setenv(config.EnvTable, "stock_prices")
	t.Setenv(config.EnvRedisHost, "")
	return path
}

// TestRun_ListenFailureReturns はリッスンに失敗した場合に終了せず1を返す（defer が実行される）ことを検証します。
func TestRun_ListenFailureReturns(t *testing.T) {
	setSQLiteEnv(t)
	t.Setenv(config.EnvServerAddr, "127.0.0.1:-1")

	if code := run(nil, &bytes.Buffer{}); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestRun_InvalidDBConfig(t *testing.T) {
	t.Setenv(config.EnvDBDriver, config.DriverSQLite)
	t.Setenv(config.EnvDatabase, "")
	t.Setenv(config.EnvTable, "")

	if code := run(nil, &bytes.Buffer{}); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

// TestRun_IssueToken は -issue-token で読み取りスコープ付きのトークンが出力されることを検証します。
func TestRun_IssueToken(t *testing.T) {
	const secret = "server-test-secret"
	t.Setenv(config.EnvJWTSecret, secret)

	var out bytes.Buffer
	code := run([]string{"-issue-token", "reporting", "-token-ttl", "1h"}, &out)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("printed token does not verify: %v", err)
	}
	if claims["sub"] != "reporting" {
		t.Errorf("expected sub reporting, got %v", claims["sub"])
	}
	if claims["scope"] != jwtmw.ReadScope {
		t.Errorf("expected scope %q, got %v", jwtmw.ReadScope, claims["scope"])
	}
	exp, _ := claims.GetExpirationTime()
	if exp == nil || time.Until(exp.Time) > time.Hour {
		t.Errorf("unexpected expiry %v", exp)
	}
}

func TestRun_BadFlag(t *testing.T) {
	if code := run([]string{"-no-such-flag"}, &bytes.Buffer{}); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}
