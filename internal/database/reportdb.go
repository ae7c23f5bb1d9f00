package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "panopticlick.db"

// storedTimeFormat keeps generated_at fixed-width so it sorts as text.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ReportDB provides SQLite-based storage for valuation reports.
type ReportDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ReportDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ReportDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	// The busy timeout lets a CLI run and a server share one file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReportDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *ReportDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *ReportDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *ReportDB) createTables() error {
	schema := `
	-- One row per assembled report; report_json is the full wire format
	CREATE TABLE IF NOT EXISTS valuation_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT NOT NULL UNIQUE,
		payload_hash TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		total_bits REAL NOT NULL,
		entropy_tier TEXT NOT NULL,
		persona TEXT NOT NULL,
		annual_value REAL NOT NULL,
		defense_score INTEGER NOT NULL,
		defense_tier TEXT NOT NULL,
		report_json TEXT NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_hash ON valuation_reports(payload_hash);
	CREATE INDEX IF NOT EXISTS idx_reports_generated ON valuation_reports(generated_at);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a report and returns its database ID.
// Saving the same report ID twice is an error.
func (rdb *ReportDB) SaveReport(ctx context.Context, report *model.ValuationReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO valuation_reports (
		report_id, payload_hash, generated_at, total_bits, entropy_tier,
		persona, annual_value, defense_score, defense_tier, report_json
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := rdb.db.ExecContext(ctx, query,
		report.Meta.ReportID,
		report.Meta.PayloadHash,
		report.Meta.GeneratedAt.UTC().Format(storedTimeFormat),
		report.Entropy.TotalBits,
		string(report.Entropy.Tier),
		string(report.Valuation.Persona),
		report.Valuation.AnnualValue,
		report.Defenses.Score,
		string(report.Defenses.Tier),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read report id: %w", err)
	}
	return id, nil
}

// GetLatestReport retrieves the most recent report for a payload hash.
// It returns nil without error when the hash has no history.
func (rdb *ReportDB) GetLatestReport(ctx context.Context, payloadHash string) (*model.ValuationReport, error) {
	query := `
	SELECT report_json FROM valuation_reports
	WHERE payload_hash = ?
	ORDER BY generated_at DESC, id DESC
	LIMIT 1
	`

	return rdb.queryOne(ctx, query, payloadHash)
}

// GetReportByID retrieves a report by its database ID.
func (rdb *ReportDB) GetReportByID(ctx context.Context, id int64) (*model.ValuationReport, error) {
	query := `
	SELECT report_json FROM valuation_reports
	WHERE id = ?
	`

	return rdb.queryOne(ctx, query, id)
}

// GetReportByReportID retrieves a report by its report ID.
func (rdb *ReportDB) GetReportByReportID(ctx context.Context, reportID string) (*model.ValuationReport, error) {
	query := `
	SELECT report_json FROM valuation_reports
	WHERE report_id = ?
	`

	return rdb.queryOne(ctx, query, reportID)
}

// queryOne runs a single-row report query.
func (rdb *ReportDB) queryOne(ctx context.Context, query string, args ...any) (*model.ValuationReport, error) {
	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.ValuationReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListPayloadHashes returns every payload hash with at least one report.
func (rdb *ReportDB) ListPayloadHashes(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT payload_hash FROM valuation_reports
	ORDER BY payload_hash
	`

	rows, err := rdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payload hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan payload hash: %w", err)
		}
		hashes = append(hashes, hash)
	}

	return hashes, rows.Err()
}

// GetReportHistory retrieves all reports for a payload hash, newest first.
func (rdb *ReportDB) GetReportHistory(ctx context.Context, payloadHash string) ([]*model.ValuationReport, error) {
	query := `
	SELECT report_json FROM valuation_reports
	WHERE payload_hash = ?
	ORDER BY generated_at DESC, id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, payloadHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get report history: %w", err)
	}
	defer rows.Close()

	var reports []*model.ValuationReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.ValuationReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ReportMetadata contains summary information about a stored report.
// This is used for displaying history without loading the full report.
type ReportMetadata struct {
	// ID is the database ID, usable with GetReportByID.
	ID int64

	ReportID    string
	PayloadHash string
	GeneratedAt time.Time

	TotalBits    float64
	EntropyTier  model.EntropyTier
	Persona      model.Persona
	AnnualValue  float64
	DefenseScore int
	DefenseTier  model.DefenseTier
}

// GetReportHistoryWithMetadata retrieves report metadata for a payload hash.
// This is more efficient than GetReportHistory when only metadata is needed.
func (rdb *ReportDB) GetReportHistoryWithMetadata(ctx context.Context, payloadHash string) ([]ReportMetadata, error) {
	query := `
	SELECT id, report_id, payload_hash, generated_at, total_bits, entropy_tier,
		persona, annual_value, defense_score, defense_tier
	FROM valuation_reports
	WHERE payload_hash = ?
	ORDER BY generated_at DESC, id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, payloadHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get report history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var generatedAt, entropyTier, persona, defenseTier string

		if err := rows.Scan(
			&meta.ID, &meta.ReportID, &meta.PayloadHash, &generatedAt, &meta.TotalBits,
			&entropyTier, &persona, &meta.AnnualValue, &meta.DefenseScore, &defenseTier,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.GeneratedAt = parseTimestamp(generatedAt)
		meta.EntropyTier = model.EntropyTier(entropyTier)
		meta.Persona = model.Persona(persona)
		meta.DefenseTier = model.DefenseTier(defenseTier)

		results = append(results, meta)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // generated_at as written by SaveReport, any precision
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
