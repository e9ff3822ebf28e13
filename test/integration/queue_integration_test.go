package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fieldserve/jobrunner/internal/jobs"
	storage "github.com/fieldserve/jobrunner/internal/storage/postgres"
	"github.com/fieldserve/jobrunner/migrations"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	testDB  *sql.DB
	testDSN string
)

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	pool.MaxWait = 60 * time.Second

	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	pg, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "17-alpine",
		Env: []string{
			"POSTGRES_USER=testuser",
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_DB=jobrunner",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start postgres container: %s", err)
	}

	port := pg.GetPort("5432/tcp")
	testDSN = fmt.Sprintf(
		"host=localhost user=testuser password=testpass dbname=jobrunner port=%s sslmode=disable TimeZone=UTC",
		port,
	)

	if err := pool.Retry(func() error {
		var err error
		testDB, err = sql.Open("postgres", testDSN)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := testDB.PingContext(ctx); err != nil {
			testDB.Close()
			return err
		}

		if err := migrations.Up(testDB); err != nil {
			log.Printf("Failed to run migrations: %v", err)
			testDB.Close()
			return err
		}

		return nil
	}); err != nil {
		log.Fatalf("Could not connect to postgres: %s", err)
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}

	if err := pool.Purge(pg); err != nil {
		log.Fatalf("Could not purge postgres container: %s", err)
	}

	os.Exit(code)
}

func openGorm(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func truncateQueue(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec("TRUNCATE queued_jobs RESTART IDENTITY")
	require.NoError(t, err)
}

// Two executor processes polling the same table must never run the same
// row: the claim is one conditional UPDATE with SKIP LOCKED, so every
// row is handed out exactly once.
func TestClaimNext_ConcurrentClaimsAreExclusive(t *testing.T) {
	truncateQueue(t)

	const totalJobs = 60
	const claimers = 8

	db := openGorm(t)
	repo := storage.NewQueueRepository(db)
	ctx := context.Background()

	for i := 0; i < totalJobs; i++ {
		require.NoError(t, repo.Insert(ctx, jobs.JobPayload{
			OrgID: "org1",
			Type:  "sendInvoiceReminder",
			Data:  map[string]any{"invoiceId": fmt.Sprintf("inv-%d", i)},
		}.Normalized()))
	}

	claimedIDs := make(chan uint, totalJobs*2)
	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each goroutine gets its own connection via the shared pool
			for {
				job, err := repo.ClaimNext(ctx)
				if err != nil {
					t.Error(err)
					return
				}
				if job == nil {
					return
				}
				claimedIDs <- job.ID
			}
		}()
	}
	wg.Wait()
	close(claimedIDs)

	seen := map[uint]int{}
	for id := range claimedIDs {
		seen[id]++
	}

	assert.Len(t, seen, totalJobs, "every row claimed")
	for id, count := range seen {
		assert.Equal(t, 1, count, "row %d claimed more than once", id)
	}
}

func TestClaimNext_FIFOByCreatedAt(t *testing.T) {
	truncateQueue(t)

	db := openGorm(t)
	repo := storage.NewQueueRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := 2; i >= 0; i-- {
		require.NoError(t, repo.Insert(ctx, jobs.JobPayload{
			OrgID: "org1",
			Type:  fmt.Sprintf("job-%d", i),
		}.Normalized()))
		_, err := testDB.Exec(
			"UPDATE queued_jobs SET created_at = $1 WHERE type = $2",
			base.Add(time.Duration(i)*time.Minute), fmt.Sprintf("job-%d", i),
		)
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		job, err := repo.ClaimNext(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, fmt.Sprintf("job-%d", i), job.Payload.Type)
	}
}

// A failed attempt releases the row in place: the retry is claimed
// ahead of younger rows because created_at never changes.
func TestFail_RequeueKeepsFIFOPosition(t *testing.T) {
	truncateQueue(t)

	db := openGorm(t)
	repo := storage.NewQueueRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, jobs.JobPayload{OrgID: "org1", Type: "older"}.Normalized()))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Insert(ctx, jobs.JobPayload{OrgID: "org1", Type: "younger"}.Normalized()))

	first, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "older", first.Payload.Type)

	purged, err := repo.Fail(ctx, first.ID, 5)
	require.NoError(t, err)
	require.False(t, purged)

	second, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "older", second.Payload.Type, "retried row comes back at the head")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Attempts)
}
