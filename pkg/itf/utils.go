package itf

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iota-uz/accounts/pkg/configuration"
	"github.com/iota-uz/accounts/pkg/dbmigrate"
)

// NewPool connects to dsn, or to database on the same server when database is not empty.
func NewPool(ctx context.Context, dsn, database string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if database != "" {
		config.ConnConfig.Database = database
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Minute * 5
	config.MaxConnIdleTime = time.Second * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewDatabase returns a pool on a fresh, fully migrated database named after the test.
// The configured server (DB_* variables) is used when reachable, otherwise a postgres
// container is started. The test is skipped under -short, or when neither is available
// outside CI.
func NewDatabase(tb testing.TB) *pgxpool.Pool {
	tb.Helper()
	if testing.Short() {
		tb.Skip("integration test skipped in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	adminDSN, ok := configuredServer(ctx)
	if !ok {
		adminDSN = startContainer(tb, ctx)
	}

	admin, err := pgx.Connect(ctx, adminDSN)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = admin.Close(context.Background()) })

	name := sanitizeDBName("itf_" + tb.Name())
	_, err = admin.Exec(ctx, "DROP DATABASE IF EXISTS "+name)
	require.NoError(tb, err)
	_, err = admin.Exec(ctx, "CREATE DATABASE "+name)
	require.NoError(tb, err)

	pool, err := NewPool(ctx, adminDSN, name)
	require.NoError(tb, err)
	tb.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP DATABASE IF EXISTS "+name)
	})

	m, err := dbmigrate.New(pool, dbmigrate.Options{})
	require.NoError(tb, err)
	defer func() { _ = m.Close() }()
	require.NoError(tb, m.Up(ctx))

	return pool
}

func isCI() bool {
	return strings.TrimSpace(os.Getenv("CI")) != "" ||
		strings.EqualFold(strings.TrimSpace(os.Getenv("GITHUB_ACTIONS")), "true")
}

func configuredServer(ctx context.Context) (string, bool) {
	c := configuration.Use()
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s dbname=postgres password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
	)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	conn, err := pgx.Connect(pingCtx, dsn)
	if err != nil {
		return "", false
	}
	_ = conn.Close(ctx)
	return dsn, true
}

func startContainer(tb testing.TB, ctx context.Context) string {
	tb.Helper()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("postgres"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		if isCI() {
			require.NoError(tb, err)
		}
		tb.Skipf("postgres is not reachable and no container runtime is available: %v", err)
	}
	tb.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(tb, err)
	return dsn
}

const (
	// PostgreSQL database name maximum length is 63 characters
	maxDBNameLength  = 63
	hashSuffixLength = 9
)

// sanitizeDBName lowercases name, replaces anything outside [a-z0-9_] with underscores and
// keeps the result within PostgreSQL's identifier limit.
func sanitizeDBName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, strings.ToLower(name))

	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}

	sum := sha256.Sum256([]byte(name))
	hash := fmt.Sprintf("%x", sum)[:8]
	return strings.TrimRight(sanitized[:maxDBNameLength-hashSuffixLength], "_") + "_" + hash
}
