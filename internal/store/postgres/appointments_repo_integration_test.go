package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"trainerbook/backend/internal/domain"
	"trainerbook/backend/internal/store"
)

func TestPostgresIntegration_OverlapBoundariesAndStaleWrites(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("TRAINERBOOK_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("TRAINERBOOK_TEST_DATABASE_URL not set")
	}

	db, err := Open(databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "trainerbook_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	trainer := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	client := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		if err := applyMigrations(ctx, tx); err != nil {
			return err
		}
		if err := seedUsers(ctx, tx, trainer, client); err != nil {
			return err
		}

		s := scheduleTx{tx: tx}

		a1, err := s.Create(ctx, domain.Appointment{
			TrainerID:       trainer,
			ClientID:        client,
			Title:           "t1",
			StartDatetime:   start,
			EndDatetime:     end,
			DurationMinutes: 60,
			Status:          domain.StatusScheduled,
		})
		if err != nil {
			return err
		}

		// The exclusion constraint rejects a genuine overlap even when the
		// caller skips FindConflict.
		_, err = s.Create(ctx, domain.Appointment{
			TrainerID:       trainer,
			ClientID:        client,
			Title:           "t2",
			StartDatetime:   start.Add(30 * time.Minute),
			EndDatetime:     end.Add(30 * time.Minute),
			DurationMinutes: 60,
			Status:          domain.StatusScheduled,
		})
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("overlap err = %v, want %v", err, store.ErrConflict)
		}

		// Touching windows are half-open; sharing an endpoint is fine.
		a2, err := s.Create(ctx, domain.Appointment{
			TrainerID:       trainer,
			ClientID:        client,
			Title:           "t3",
			StartDatetime:   end,
			EndDatetime:     end.Add(time.Hour),
			DurationMinutes: 60,
			Status:          domain.StatusScheduled,
		})
		if err != nil {
			return err
		}

		conflict, err := s.FindConflict(ctx, trainer, start.Add(30*time.Minute), end.Add(30*time.Minute), uuid.Nil)
		if err != nil {
			return err
		}
		if conflict == nil {
			return fmt.Errorf("expected conflict against existing window")
		}

		// Excluding the only occupant of a window clears it.
		conflict, err = s.FindConflict(ctx, trainer, start, start.Add(30*time.Minute), a1.ID)
		if err != nil {
			return err
		}
		if conflict != nil {
			return fmt.Errorf("unexpected conflict %s with occupant excluded", conflict.ID)
		}

		stale := a1

		cancelledAt := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
		a1.Status = domain.StatusCancelled
		a1.CancelledAt = &cancelledAt
		a1, err = s.Update(ctx, a1)
		if err != nil {
			return err
		}

		// Cancelled rows no longer block the slot.
		_, err = s.Create(ctx, domain.Appointment{
			TrainerID:       trainer,
			ClientID:        client,
			Title:           "t4",
			StartDatetime:   start,
			EndDatetime:     end,
			DurationMinutes: 60,
			Status:          domain.StatusScheduled,
		})
		if err != nil {
			return err
		}

		// A write guarded by a superseded updated_at affects zero rows.
		stale.Title = "stale write"
		_, err = s.Update(ctx, stale)
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("stale update err = %v, want %v", err, store.ErrConflict)
		}

		got, err := s.GetForUpdate(ctx, a2.ID)
		if err != nil {
			return err
		}
		if got.ID != a2.ID {
			return fmt.Errorf("GetForUpdate id = %s, want %s", got.ID, a2.ID)
		}

		_, err = s.GetForUpdate(ctx, uuid.MustParse("00000000-0000-0000-0000-0000000009ff"))
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("missing row err = %v, want %v", err, store.ErrNotFound)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func seedUsers(ctx context.Context, tx bun.Tx, trainerID, clientID uuid.UUID) error {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	users := []domain.User{
		{ID: trainerID, Email: "trainer@test.com", Role: domain.RoleTrainer, CreatedAt: now, UpdatedAt: now},
		{ID: clientID, Email: "client@test.com", Role: domain.RoleClient, CreatedAt: now, UpdatedAt: now},
	}
	_, err := tx.NewInsert().Model(&users).Exec(ctx)
	return err
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

// applyMigrations replays the embedded goose Up sections inside the
// test's transaction so the schema lands in the per-test search_path.
func applyMigrations(ctx context.Context, exec rawExecutor) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for _, stmt := range splitSQLStatements(upSQL) {
			if normalized, ok := normalizeExtensionStatement(stmt); ok {
				stmt = normalized
			}
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

// btree_gist must land in a shared schema or the exclusion constraint
// cannot find its operator classes from the test schema.
func normalizeExtensionStatement(stmt string) (string, bool) {
	s := strings.TrimSpace(stmt)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "CREATE EXTENSION") {
		return "", false
	}
	if !strings.Contains(upper, "BTREE_GIST") {
		return "", false
	}
	if strings.Contains(upper, " SCHEMA ") {
		return "", false
	}
	return s + " SCHEMA public", true
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
