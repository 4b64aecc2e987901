package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestPassword() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "test_fallback_password_123"
	}
	return "test_" + hex.EncodeToString(bytes)
}

// setupPostgresLedger starts a PostgreSQL container, applies the ledger
// migrations and returns a connection URL.
func setupPostgresLedger(t *testing.T) (string, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed ledger test in short mode")
	}
	ctx := context.Background()
	testPassword := generateTestPassword()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("ledgerdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	databaseURL := "postgres://testuser:" + testPassword + "@" + host + ":" + port.Port() + "/ledgerdb?sslmode=disable"

	migrationRunner, err := NewMigrationRunner(databaseURL, "../../migrations", testLogger())
	if err != nil {
		t.Fatalf("Failed to create migration runner: %v", err)
	}
	if err := migrationRunner.Up(); err != nil {
		t.Fatalf("Failed to run ledger migrations: %v", err)
	}

	cleanup := func() {
		migrationRunner.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}
	return databaseURL, cleanup
}

func TestPostgresLedger_ConcurrentInstancesNeverCollide(t *testing.T) {
	databaseURL, cleanup := setupPostgresLedger(t)
	defer cleanup()

	const instances = 4
	stores := make([]*PostgresStore, instances)
	for i := range stores {
		store, err := NewPostgresStoreFromURL(databaseURL)
		require.NoError(t, err)
		defer store.Close()
		stores[i] = store
	}

	var wg sync.WaitGroup
	results := make([]map[string]int64, instances)
	for i, store := range stores {
		wg.Add(1)
		go func(i int, store *PostgresStore) {
			defer wg.Done()
			mapping, err := NewAllocator(store, testLogger()).Allocate(
				context.Background(), []string{"A", "B", "C", "D", "E"})
			assert.NoError(t, err)
			results[i] = mapping
		}(i, store)
	}
	wg.Wait()

	seen := make(map[int64]int)
	for _, mapping := range results {
		require.Len(t, mapping, 5)
		for _, surrogate := range mapping {
			seen[surrogate]++
		}
	}
	for surrogate, count := range seen {
		assert.Equal(t, 1, count, "surrogate %d issued more than once", surrogate)
	}

	// The ledger holds every committed id.
	err := stores[0].Reserve(context.Background(), func(used map[int64]bool) ([]int64, error) {
		assert.Len(t, used, instances*5)
		return nil, nil
	})
	require.NoError(t, err)
}
