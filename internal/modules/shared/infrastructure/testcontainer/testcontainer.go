package testcontainer

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"winescan-app/internal/config"
)

const (
	redisImage = "redis:7-alpine"
	mysqlImage = "mysql:8.0"

	testDatabase = "winescan_test"
	testUser     = "winescan"
	testPassword = "winescan"
)

// RedisConfig Redisコンテナを起動し接続設定を返す
// -short指定時はスキップ。コンテナはテスト終了時に停止する
func RedisConfig(t *testing.T) *config.RedisConfig {
	t.Helper()
	skipIfShort(t)

	ctx := context.Background()
	container, err := rediscontainer.Run(ctx,
		redisImage,
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, port, err := endpoint(ctx, container, "6379")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}

	return &config.RedisConfig{Host: host, Port: port}
}

// MySQLConfig MySQLコンテナを起動し接続設定を返す
func MySQLConfig(t *testing.T) *config.MySQLConfig {
	t.Helper()
	skipIfShort(t)

	ctx := context.Background()
	container, err := mysql.Run(ctx,
		mysqlImage,
		mysql.WithDatabase(testDatabase),
		mysql.WithUsername(testUser),
		mysql.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start mysql container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate mysql container: %v", err)
		}
	})

	host, port, err := endpoint(ctx, container, "3306")
	if err != nil {
		t.Fatalf("mysql endpoint: %v", err)
	}

	return &config.MySQLConfig{
		Host:     host,
		Port:     port,
		User:     testUser,
		Password: testPassword,
		Database: testDatabase,
	}
}

func endpoint(ctx context.Context, container testcontainers.Container, containerPort string) (string, int, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, nat.Port(containerPort))
	if err != nil {
		return "", 0, fmt.Errorf("failed to get mapped port: %w", err)
	}

	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", mapped.Port(), err)
	}
	return host, port, nil
}

func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
}
