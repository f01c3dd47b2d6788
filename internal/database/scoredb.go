package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/vitals/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "scores.db"

// ErrSnapshotNotFound is returned when a requested snapshot does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ScoreDB stores Lighthouse score snapshots in SQLite.
type ScoreDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScoreDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScoreDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScoreDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run 'vitals scores' first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScoreDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *ScoreDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *ScoreDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScoreDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken_at TEXT NOT NULL,
		fingerprint TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);

	CREATE TABLE IF NOT EXISTS snapshot_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		website TEXT NOT NULL,
		page_id TEXT NOT NULL,
		alias TEXT,
		url TEXT NOT NULL,
		device TEXT,
		performance REAL,
		accessibility REAL,
		best_practices REAL,
		seo REAL
	);

	CREATE INDEX IF NOT EXISTS idx_rows_snapshot ON snapshot_rows(snapshot_id);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveSnapshot stores rows as a new snapshot taken at takenAt.
// If the rows are identical to the latest snapshot nothing is stored and
// saved is false. An empty rows slice is never stored.
func (sdb *ScoreDB) SaveSnapshot(ctx context.Context, rows []model.ScoreRow, takenAt time.Time) (snapshot *model.Snapshot, saved bool, err error) {
	if len(rows) == 0 {
		return nil, false, nil
	}

	fingerprint := Fingerprint(rows)
	latest, err := sdb.latestFingerprint(ctx)
	if err != nil {
		return nil, false, err
	}
	if latest == fingerprint {
		return nil, false, nil
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, fingerprint) VALUES (?, ?)`,
		takenAt.UTC().Format(time.RFC3339Nano), fingerprint,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get snapshot ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO snapshot_rows
		(snapshot_id, position, website, page_id, alias, url, device, performance, accessibility, best_practices, seo)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			id, i, r.Website, r.PageID, r.Alias, r.URL, r.Device,
			nullFloat(r.Scores.Performance),
			nullFloat(r.Scores.Accessibility),
			nullFloat(r.Scores.BestPractices),
			nullFloat(r.Scores.SEO),
		); err != nil {
			return nil, false, fmt.Errorf("failed to save snapshot row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return &model.Snapshot{
		ID:          id,
		TakenAt:     takenAt.UTC(),
		Fingerprint: fingerprint,
		Rows:        rows,
	}, true, nil
}

func (sdb *ScoreDB) latestFingerprint(ctx context.Context) (string, error) {
	var fingerprint string
	err := sdb.db.QueryRowContext(ctx,
		`SELECT fingerprint FROM snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return fingerprint, nil
}

// GetSnapshot retrieves a snapshot with its rows by ID.
func (sdb *ScoreDB) GetSnapshot(ctx context.Context, id int64) (*model.Snapshot, error) {
	var (
		snap    model.Snapshot
		takenAt string
	)
	err := sdb.db.QueryRowContext(ctx,
		`SELECT id, taken_at, fingerprint FROM snapshots WHERE id = ?`, id,
	).Scan(&snap.ID, &takenAt, &snap.Fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: #%d", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	snap.TakenAt = parseTimestamp(takenAt)

	rows, err := sdb.snapshotRows(ctx, id)
	if err != nil {
		return nil, err
	}
	snap.Rows = rows
	return &snap, nil
}

func (sdb *ScoreDB) snapshotRows(ctx context.Context, id int64) ([]model.ScoreRow, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT website, page_id, alias, url, device, performance, accessibility, best_practices, seo
	FROM snapshot_rows
	WHERE snapshot_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot rows: %w", err)
	}
	defer rows.Close()

	var results []model.ScoreRow
	for rows.Next() {
		var (
			r                               model.ScoreRow
			alias, device                   sql.NullString
			perf, access, practices, seoVal sql.NullFloat64
		)
		if err := rows.Scan(&r.Website, &r.PageID, &alias, &r.URL, &device, &perf, &access, &practices, &seoVal); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		r.Alias = alias.String
		r.Device = device.String
		r.Scores = model.LighthouseScore{
			Performance:   floatPtr(perf),
			Accessibility: floatPtr(access),
			BestPractices: floatPtr(practices),
			SEO:           floatPtr(seoVal),
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListSnapshots returns metadata of every snapshot, newest first.
func (sdb *ScoreDB) ListSnapshots(ctx context.Context) ([]model.SnapshotMeta, error) {
	return sdb.listSnapshots(ctx, -1)
}

// LatestSnapshots returns the n most recent snapshots with their rows,
// newest first. Fewer are returned when fewer exist.
func (sdb *ScoreDB) LatestSnapshots(ctx context.Context, n int) ([]*model.Snapshot, error) {
	if n <= 0 {
		return nil, nil
	}
	metas, err := sdb.listSnapshots(ctx, n)
	if err != nil {
		return nil, err
	}
	snapshots := make([]*model.Snapshot, 0, len(metas))
	for _, m := range metas {
		s, err := sdb.GetSnapshot(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

// listSnapshots returns up to limit snapshot summaries, newest first.
// A negative limit returns all of them.
func (sdb *ScoreDB) listSnapshots(ctx context.Context, limit int) ([]model.SnapshotMeta, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT s.id, s.taken_at, COUNT(DISTINCT r.website), COUNT(r.id)
	FROM snapshots s
	LEFT JOIN snapshot_rows r ON r.snapshot_id = s.id
	GROUP BY s.id
	ORDER BY s.id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var results []model.SnapshotMeta
	for rows.Next() {
		var (
			meta    model.SnapshotMeta
			takenAt string
		)
		if err := rows.Scan(&meta.ID, &takenAt, &meta.Websites, &meta.Pages); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		meta.TakenAt = parseTimestamp(takenAt)
		results = append(results, meta)
	}
	return results, rows.Err()
}

// Fingerprint returns a SHA3-256 digest of rows that does not depend on
// their order.
func Fingerprint(rows []model.ScoreRow) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		fields := []string{r.Website, r.PageID, r.Alias, r.URL, r.Device}
		for _, v := range r.Scores.Values() {
			if v == nil {
				fields = append(fields, "-")
				continue
			}
			fields = append(fields, strconv.FormatFloat(*v, 'g', -1, 64))
		}
		lines = append(lines, strings.Join(fields, "\x1f"))
	}
	sort.Strings(lines)

	sum := sha3.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return model.Float(v.Float64)
}

// timestampFormats lists the formats SQLite timestamps may come back in.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s with the first matching format and returns the
// zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
