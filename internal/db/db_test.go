package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/readmit/internal/db"
	"github.com/gyeh/readmit/internal/logging"
	"github.com/gyeh/readmit/internal/model"
	"github.com/gyeh/readmit/internal/reconcile"
	"github.com/gyeh/readmit/internal/schema"
)

const (
	testPort     = 15433
	testDB       = "readmittest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN   string
	pgEnabled bool
)

func TestMain(m *testing.M) {
	if os.Getenv("READMIT_PG_TEST") != "1" {
		fmt.Fprintln(os.Stderr, "SKIP: set READMIT_PG_TEST=1 to run postgres tests")
		os.Exit(m.Run())
	}
	pgEnabled = true

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if !pgEnabled {
		t.Skip("postgres tests disabled")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS readmit CASCADE"); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
	if err := db.ApplyMigrations(ctx, pool, logging.Setup("text", "warn")); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func scoredRows(batch uuid.UUID, modelID string, n int) <-chan *model.ScoredRow {
	ch := make(chan *model.ScoredRow, n)
	for i := 0; i < n; i++ {
		ch <- &model.ScoredRow{
			BatchID:     batch.String(),
			RowNumber:   int64(i + 1),
			InputHash:   []byte(fmt.Sprintf("hash-%d", i)),
			ModelID:     modelID,
			Label:       int32(i % 2),
			Probability: 0.25 + 0.5*float64(i%2),
			Risk:        string(model.RiskFor(i % 2)),
		}
	}
	close(ch)
	return ch
}

func count(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestMigrations_Idempotent(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	if err := db.ApplyMigrations(ctx, pool, logging.Setup("text", "warn")); err != nil {
		t.Fatalf("second migration run should be idempotent: %v", err)
	}
	if n := count(t, pool, "SELECT count(*) FROM readmit.schema_migrations"); n != 1 {
		t.Errorf("expected 1 recorded migration, got %d", n)
	}
	for _, tbl := range []string{"readmit.score_batches", "readmit.scored_rows", "readmit.predictions"} {
		n := count(t, pool,
			"SELECT count(*) FROM information_schema.tables WHERE table_schema || '.' || table_name = $1", tbl)
		if n != 1 {
			t.Errorf("table %s should exist after migrations", tbl)
		}
	}
}

func TestStore_BatchLifecycle(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := db.NewStore(pool, logging.Setup("text", "warn"))
	modelID := uuid.NewString()

	b := &db.Batch{ID: uuid.New(), InputPath: "in.csv", InputSHA256: "abc", ModelID: modelID}
	stored, err := store.RegisterBatch(ctx, b, false)
	if err != nil || stored {
		t.Fatalf("first register: stored=%v err=%v", stored, err)
	}
	n, err := store.CopyScored(ctx, scoredRows(b.ID, modelID, 50))
	if err != nil {
		t.Fatalf("CopyScored: %v", err)
	}
	if n != 50 {
		t.Fatalf("expected 50 rows copied, got %d", n)
	}
	if err := store.UpdateBatch(ctx, b.ID, db.StatusStored, 50, 0); err != nil {
		t.Fatalf("UpdateBatch: %v", err)
	}

	again := &db.Batch{ID: uuid.New(), InputPath: "copy.csv", InputSHA256: "abc", ModelID: modelID}
	stored, err = store.RegisterBatch(ctx, again, false)
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if !stored || again.ID != b.ID {
		t.Fatalf("expected existing stored batch %s, got stored=%v id=%s", b.ID, stored, again.ID)
	}

	stored, err = store.RegisterBatch(ctx, again, true)
	if err != nil || stored {
		t.Fatalf("forced register: stored=%v err=%v", stored, err)
	}
	if got := count(t, pool, "SELECT count(*) FROM readmit.scored_rows WHERE batch_id = $1", b.ID); got != 0 {
		t.Errorf("forced re-score must clear previous rows, found %d", got)
	}
	var status string
	pool.QueryRow(ctx, "SELECT status FROM readmit.score_batches WHERE batch_id = $1", b.ID).Scan(&status)
	if status != db.StatusPending {
		t.Errorf("expected status reset to pending, got %s", status)
	}
}

func TestStore_CopyRejectsBadID(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	store := db.NewStore(pool, logging.Setup("text", "warn"))

	ch := make(chan *model.ScoredRow, 1)
	ch <- &model.ScoredRow{BatchID: "nope", ModelID: uuid.NewString(), RowNumber: 1}
	close(ch)
	if _, err := store.CopyScored(ctx, ch); err == nil {
		t.Fatal("expected error for malformed batch id")
	}
}

func TestPredictionLog_Record(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := db.NewPredictionLog(pool)

	p := &model.Prediction{
		ID:          uuid.New(),
		ModelID:     uuid.NewString(),
		Label:       1,
		Risk:        model.RiskHigh,
		Probability: 0.7,
		Record: reconcile.Record{
			Fields: []reconcile.Field{
				{Name: "age", Kind: schema.Categorical, Text: "[70-80)", Source: reconcile.FromObserved},
				{Name: "race", Kind: schema.Categorical, Text: "Unknown", Source: reconcile.FromDefault},
			},
			Ignored: []string{"unused_field"},
		},
	}
	if err := log.Record(ctx, p, reconcile.Observed{"age": "[70-80)", "unused_field": 1}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	var defaulted, ignored []string
	var age string
	err := pool.QueryRow(ctx,
		"SELECT defaulted, ignored, observed->>'age' FROM readmit.predictions WHERE prediction_id = $1", p.ID).
		Scan(&defaulted, &ignored, &age)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(defaulted) != 1 || defaulted[0] != "race" {
		t.Errorf("defaulted: got %v", defaulted)
	}
	if len(ignored) != 1 || ignored[0] != "unused_field" {
		t.Errorf("ignored: got %v", ignored)
	}
	if age != "[70-80)" {
		t.Errorf("observed age: got %q", age)
	}
}
