package catalog

// datasetsSchemaSQL creates the datasets table.
const datasetsSchemaSQL = `
CREATE TABLE IF NOT EXISTS datasets (
	dataset_id   TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	object_path  TEXT NOT NULL,
	row_count    INTEGER NOT NULL,
	fingerprint  TEXT NOT NULL,
	seed         INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	deleted_at   INTEGER
)`

// datasetsIndexSQL speeds up listing by creation time.
const datasetsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_datasets_created_at
ON datasets(created_at DESC)`

// audiencesSchemaSQL creates the saved audiences table. Rules are
// stored as a JSON document.
const audiencesSchemaSQL = `
CREATE TABLE IF NOT EXISTS audiences (
	name       TEXT PRIMARY KEY,
	rules_json TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// AllSchemaSQL returns all schema statements in execution order.
func AllSchemaSQL() []string {
	return []string{
		datasetsSchemaSQL,
		datasetsIndexSQL,
		audiencesSchemaSQL,
	}
}
