package snapshots

// Integration tests against a real MongoDB instance. Gated on
// PSESYNC_TEST_MONGO_HOST so the suite stays green without one:
//
//	docker run -d -p 27017:27017 mongo:7
//	PSESYNC_TEST_MONGO_HOST=localhost go test ./internal/database/...

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaleski/psesync/internal/config"
	"github.com/mzaleski/psesync/internal/database"
	"github.com/mzaleski/psesync/internal/entities"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()

	host := os.Getenv("PSESYNC_TEST_MONGO_HOST")
	if host == "" {
		t.Skip("PSESYNC_TEST_MONGO_HOST not set, skipping MongoDB integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, config.Database{
		Host:           host,
		Port:           27017,
		Name:           "psesync_test",
		ConnectTimeout: 5 * time.Second,
		PingTimeout:    2 * time.Second,
		SocketTimeout:  5 * time.Second,
		MaxPoolSize:    4,
		MinPoolSize:    1,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close(context.Background())
	})

	return NewRepository(db)
}

func testCollection(t *testing.T, repo *Repository) string {
	t.Helper()
	name := fmt.Sprintf("pk5l_wp_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_ = repo.db.Collection(name).Drop(context.Background())
	})
	return name
}

func snapshotFor(day time.Time, demand float64) *entities.DaySnapshot {
	rows := make([]entities.HourlyRow, 0, 2)
	for h := 0; h < 2; h++ {
		rows = append(rows, entities.HourlyRow{
			Day:  day,
			Hour: h,
			Values: map[string]any{
				"Prognozowane_zapotrzebowanie_sieci": int64(demand),
				"Krajowe_zapotrzebowanie_na_moc":     demand,
			},
		})
	}
	return &entities.DaySnapshot{
		DayStart:   day,
		First:      rows,
		Newest:     rows,
		LastUpdate: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestUpsertInsertThenUpdate(t *testing.T) {
	repo := testRepository(t)
	collection := testCollection(t, repo)
	ctx := context.Background()

	day := time.Date(2026, 1, 14, 23, 0, 0, 0, time.UTC)

	inserted, err := repo.Upsert(ctx, collection, snapshotFor(day, 21000))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second write for the same day replaces newest, keeps first
	inserted, err = repo.Upsert(ctx, collection, snapshotFor(day, 22500))
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := repo.Get(ctx, collection, day)
	require.NoError(t, err)
	require.Len(t, got.First, 2)
	require.Len(t, got.Newest, 2)
	assert.Equal(t, int64(21000), got.First[0].Values["Prognozowane_zapotrzebowanie_sieci"])
	assert.Equal(t, int64(22500), got.Newest[0].Values["Prognozowane_zapotrzebowanie_sieci"])
}

func TestUpsertIdenticalContentIsIdempotent(t *testing.T) {
	repo := testRepository(t)
	collection := testCollection(t, repo)
	ctx := context.Background()

	day := time.Date(2026, 6, 14, 22, 0, 0, 0, time.UTC)
	snap := snapshotFor(day, 18000)

	_, err := repo.Upsert(ctx, collection, snap)
	require.NoError(t, err)
	first, err := repo.Get(ctx, collection, day)
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, collection, snap)
	require.NoError(t, err)
	second, err := repo.Get(ctx, collection, day)
	require.NoError(t, err)

	assert.Equal(t, first.First, second.First)
	assert.Equal(t, first.Newest, second.Newest)
	assert.True(t, first.DayStart.Equal(second.DayStart))
}

func TestUpsertSeparateDays(t *testing.T) {
	repo := testRepository(t)
	collection := testCollection(t, repo)
	ctx := context.Background()

	day1 := time.Date(2026, 1, 14, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 15, 23, 0, 0, 0, time.UTC)

	inserted, err := repo.Upsert(ctx, collection, snapshotFor(day1, 21000))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Upsert(ctx, collection, snapshotFor(day2, 20000))
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := repo.Get(ctx, collection, day2)
	require.NoError(t, err)
	assert.True(t, day2.Equal(got.DayStart))
	assert.Equal(t, 0, got.Newest[0].Hour)
}

func TestGetNotFound(t *testing.T) {
	repo := testRepository(t)
	collection := testCollection(t, repo)

	_, err := repo.Get(context.Background(), collection, time.Date(2030, 1, 1, 23, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestPing(t *testing.T) {
	repo := testRepository(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
