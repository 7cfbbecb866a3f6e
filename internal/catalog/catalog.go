// Package catalog tracks dataset snapshots and saved audience
// definitions in a local SQLite database. The blobs themselves live in
// object storage; the catalog holds only metadata and pointers.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/segmetric/segmetric/internal/audience"
)

// DatasetRecord describes one stored dataset snapshot.
type DatasetRecord struct {
	DatasetID   string
	Name        string
	ObjectPath  string
	RowCount    int64
	Fingerprint uint64
	Seed        int64
	CreatedAt   time.Time
}

// Catalog manages dataset and audience metadata.
type Catalog interface {
	// RegisterDataset adds a new dataset snapshot to the catalog.
	RegisterDataset(ctx context.Context, rec *DatasetRecord) error

	// GetDataset retrieves a single dataset by ID.
	GetDataset(ctx context.Context, datasetID string) (*DatasetRecord, error)

	// ListDatasets returns all live datasets, newest first.
	ListDatasets(ctx context.Context) ([]*DatasetRecord, error)

	// DeleteDataset soft-deletes a dataset record.
	DeleteDataset(ctx context.Context, datasetID string) error

	// SaveAudience stores or replaces a named audience definition.
	SaveAudience(ctx context.Context, def audience.Definition) error

	// GetAudience retrieves a saved audience by name.
	GetAudience(ctx context.Context, name string) (*audience.Definition, error)

	// ListAudiences returns all saved audience definitions by name.
	ListAudiences(ctx context.Context) ([]audience.Definition, error)

	// Close closes the catalog database connection.
	Close() error
}

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex // serializes writes; SQLite has a single writer
}

// NewCatalog creates a new SQLite-based catalog at dbPath.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &SQLiteCatalog{db: db, dbPath: dbPath}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: failed to initialize schema: %w", err)
	}
	return c, nil
}

func (c *SQLiteCatalog) initSchema() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stmt := range AllSchemaSQL() {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// RegisterDataset adds a new dataset snapshot to the catalog.
func (c *SQLiteCatalog) RegisterDataset(ctx context.Context, rec *DatasetRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO datasets (
			dataset_id, name, object_path, row_count, fingerprint, seed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.DatasetID, rec.Name, rec.ObjectPath, rec.RowCount,
		formatFingerprint(rec.Fingerprint), rec.Seed, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("catalog: failed to insert dataset: %w", err)
	}
	return nil
}

// GetDataset retrieves a single dataset by ID. Returns sql.ErrNoRows
// wrapped when the dataset does not exist or was deleted.
func (c *SQLiteCatalog) GetDataset(ctx context.Context, datasetID string) (*DatasetRecord, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT dataset_id, name, object_path, row_count, fingerprint, seed, created_at
		FROM datasets
		WHERE dataset_id = ? AND deleted_at IS NULL`,
		datasetID,
	)
	rec, err := scanDataset(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("catalog: dataset %s: %w", datasetID, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("catalog: failed to get dataset: %w", err)
	}
	return rec, nil
}

// ListDatasets returns all live datasets, newest first.
func (c *SQLiteCatalog) ListDatasets(ctx context.Context) ([]*DatasetRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT dataset_id, name, object_path, row_count, fingerprint, seed, created_at
		FROM datasets
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, dataset_id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list datasets: %w", err)
	}
	defer rows.Close()

	var records []*DatasetRecord
	for rows.Next() {
		rec, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: failed to scan dataset: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteDataset soft-deletes a dataset record. The snapshot blob is
// removed separately by the dataset service.
func (c *SQLiteCatalog) DeleteDataset(ctx context.Context, datasetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		"UPDATE datasets SET deleted_at = ? WHERE dataset_id = ? AND deleted_at IS NULL",
		time.Now().Unix(), datasetID,
	)
	if err != nil {
		return fmt.Errorf("catalog: failed to delete dataset: %w", err)
	}
	return nil
}

// SaveAudience stores or replaces a named audience definition.
func (c *SQLiteCatalog) SaveAudience(ctx context.Context, def audience.Definition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rulesJSON, err := json.Marshal(def.Rules)
	if err != nil {
		return fmt.Errorf("catalog: failed to encode audience rules: %w", err)
	}

	now := time.Now().Unix()
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO audiences (name, rules_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET rules_json = excluded.rules_json, updated_at = excluded.updated_at`,
		def.Name, string(rulesJSON), now, now,
	)
	if err != nil {
		return fmt.Errorf("catalog: failed to save audience: %w", err)
	}
	return nil
}

// GetAudience retrieves a saved audience by name.
func (c *SQLiteCatalog) GetAudience(ctx context.Context, name string) (*audience.Definition, error) {
	var rulesJSON string
	err := c.db.QueryRowContext(ctx,
		"SELECT rules_json FROM audiences WHERE name = ?", name,
	).Scan(&rulesJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("catalog: audience %q: %w", name, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("catalog: failed to get audience: %w", err)
	}

	def := audience.Definition{Name: name}
	if err := json.Unmarshal([]byte(rulesJSON), &def.Rules); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode audience rules: %w", err)
	}
	return &def, nil
}

// ListAudiences returns all saved audience definitions by name.
func (c *SQLiteCatalog) ListAudiences(ctx context.Context) ([]audience.Definition, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT name, rules_json FROM audiences ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list audiences: %w", err)
	}
	defer rows.Close()

	var defs []audience.Definition
	for rows.Next() {
		var def audience.Definition
		var rulesJSON string
		if err := rows.Scan(&def.Name, &rulesJSON); err != nil {
			return nil, fmt.Errorf("catalog: failed to scan audience: %w", err)
		}
		if err := json.Unmarshal([]byte(rulesJSON), &def.Rules); err != nil {
			return nil, fmt.Errorf("catalog: failed to decode audience rules: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// Close closes the catalog database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDataset(row rowScanner) (*DatasetRecord, error) {
	var rec DatasetRecord
	var fingerprint string
	var createdAt int64
	if err := row.Scan(
		&rec.DatasetID, &rec.Name, &rec.ObjectPath,
		&rec.RowCount, &fingerprint, &rec.Seed, &createdAt,
	); err != nil {
		return nil, err
	}
	rec.Fingerprint = parseFingerprint(fingerprint)
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}

// Fingerprints are stored as hex text since SQLite integers are signed
// 64-bit and would mangle high-bit values.
func formatFingerprint(fp uint64) string {
	return strconv.FormatUint(fp, 16)
}

func parseFingerprint(s string) uint64 {
	fp, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return fp
}
