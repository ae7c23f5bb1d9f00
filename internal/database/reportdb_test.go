package database

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *ReportDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func makeReport(reportID, hash string, at time.Time, bits float64, score int) *model.ValuationReport {
	winner := model.RTBBid{Bidder: "The Trade Desk", Amount: 2.5, Interest: "programmatic-display"}
	return &model.ValuationReport{
		Meta: model.ReportMeta{ReportID: reportID, GeneratedAt: at.UTC(), PayloadHash: hash},
		Entropy: model.EntropyBreakdown{
			Components: map[string]model.ComponentEntropy{model.ComponentCanvas: {Bits: bits}},
			TotalBits:  bits,
			Tier:       model.EntropyTierSomewhatUnique,
			OneIn:      "1 in 1.0 million",
		},
		Valuation: model.Valuation{
			Persona:     model.PersonaGeneral,
			Winner:      winner,
			Bidders:     []model.RTBBid{winner},
			AverageCPM:  2.5,
			AnnualValue: 136.875,
		},
		Defenses: model.DefenseStatus{
			Score:           score,
			Tier:            model.DefenseTierBasic,
			Recommendations: []string{"Enable secure DNS."},
		},
	}
}

var baseTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.SaveReport(context.Background(), makeReport("r1", "h", baseTime, 10, 0)); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		reopened, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer reopened.Close()

		got, err := reopened.GetLatestReport(context.Background(), "h")
		if err != nil || got == nil {
			t.Fatalf("GetLatestReport() = %v, %v", got, err)
		}
	})

	t.Run("without WAL", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), Options{CreateIfNotExists: true})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		_ = db.Close()
	})
}

// TestSaveAndGetReport tests storing and loading a report.
func TestSaveAndGetReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	report := makeReport("0190-a", "sha3-256:aa", baseTime, 21.5, 35)
	id, err := db.SaveReport(ctx, report)
	if err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("SaveReport() id = %d, want > 0", id)
	}

	t.Run("by database id", func(t *testing.T) {
		got, err := db.GetReportByID(ctx, id)
		if err != nil {
			t.Fatalf("GetReportByID() error = %v", err)
		}
		if !reflect.DeepEqual(got, report) {
			t.Errorf("GetReportByID() =\n%+v\nwant\n%+v", got, report)
		}
	})

	t.Run("by report id", func(t *testing.T) {
		got, err := db.GetReportByReportID(ctx, "0190-a")
		if err != nil {
			t.Fatalf("GetReportByReportID() error = %v", err)
		}
		if got == nil || got.Meta.ReportID != "0190-a" {
			t.Errorf("GetReportByReportID() = %+v", got)
		}
	})

	t.Run("unknown ids return nil", func(t *testing.T) {
		got, err := db.GetReportByID(ctx, 9999)
		if err != nil || got != nil {
			t.Errorf("GetReportByID(9999) = %v, %v; want nil, nil", got, err)
		}
		got, err = db.GetLatestReport(ctx, "sha3-256:unknown")
		if err != nil || got != nil {
			t.Errorf("GetLatestReport(unknown) = %v, %v; want nil, nil", got, err)
		}
	})

	t.Run("duplicate report id is rejected", func(t *testing.T) {
		if _, err := db.SaveReport(ctx, report); err == nil {
			t.Error("expected error saving the same report twice")
		}
	})
}

// TestReportHistory tests history ordering and metadata.
func TestReportHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	// Saved out of order on purpose; sub-second times check text ordering.
	reports := []*model.ValuationReport{
		makeReport("r2", "sha3-256:aa", baseTime.Add(time.Hour), 22, 40),
		makeReport("r1", "sha3-256:aa", baseTime, 20, 25),
		makeReport("r3", "sha3-256:aa", baseTime.Add(time.Hour+500*time.Millisecond), 30, 50),
		makeReport("other", "sha3-256:bb", baseTime, 5, 100),
	}
	for _, r := range reports {
		if _, err := db.SaveReport(ctx, r); err != nil {
			t.Fatalf("SaveReport(%s) error = %v", r.Meta.ReportID, err)
		}
	}

	t.Run("latest", func(t *testing.T) {
		latest, err := db.GetLatestReport(ctx, "sha3-256:aa")
		if err != nil {
			t.Fatal(err)
		}
		if latest.Meta.ReportID != "r3" {
			t.Errorf("latest = %q, want r3", latest.Meta.ReportID)
		}
	})

	t.Run("full history newest first", func(t *testing.T) {
		history, err := db.GetReportHistory(ctx, "sha3-256:aa")
		if err != nil {
			t.Fatal(err)
		}
		var ids []string
		for _, r := range history {
			ids = append(ids, r.Meta.ReportID)
		}
		if !reflect.DeepEqual(ids, []string{"r3", "r2", "r1"}) {
			t.Errorf("history = %v, want [r3 r2 r1]", ids)
		}
	})

	t.Run("metadata", func(t *testing.T) {
		metas, err := db.GetReportHistoryWithMetadata(ctx, "sha3-256:aa")
		if err != nil {
			t.Fatal(err)
		}
		if len(metas) != 3 {
			t.Fatalf("got %d entries, want 3", len(metas))
		}
		m := metas[0]
		if m.ReportID != "r3" || m.TotalBits != 30 || m.DefenseScore != 50 {
			t.Errorf("metadata = %+v", m)
		}
		if !m.GeneratedAt.Equal(baseTime.Add(time.Hour + 500*time.Millisecond)) {
			t.Errorf("GeneratedAt = %v", m.GeneratedAt)
		}
		if m.EntropyTier != model.EntropyTierSomewhatUnique || m.Persona != model.PersonaGeneral || m.DefenseTier != model.DefenseTierBasic {
			t.Errorf("enum columns = %q %q %q", m.EntropyTier, m.Persona, m.DefenseTier)
		}
	})

	t.Run("payload hashes", func(t *testing.T) {
		hashes, err := db.ListPayloadHashes(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(hashes, []string{"sha3-256:aa", "sha3-256:bb"}) {
			t.Errorf("hashes = %v", hashes)
		}
	})
}

// TestListPayloadHashesEmpty tests an empty database.
func TestListPayloadHashesEmpty(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	hashes, err := db.ListPayloadHashes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 0 {
		t.Errorf("hashes = %v, want none", hashes)
	}
}

// TestParseTimestamp tests timestamp parsing with various formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input string
		want  time.Time
	}{
		{"2026-04-01T09:00:00.500000000Z", baseTime.Add(500 * time.Millisecond)},
		{"2026-04-01T09:00:00Z", baseTime},
		{"2026-04-01 09:00:00", baseTime},
		{"2026-04-01T09:00:00", baseTime},
		{"not a time", time.Time{}},
	}

	for _, tc := range testCases {
		if got := parseTimestamp(tc.input); !got.Equal(tc.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
