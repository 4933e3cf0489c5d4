// ABOUTME: SQLite schema for the dataset metadata store
// ABOUTME: Analysis, memberships, column choices, build history, and cached prompt vectors
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Singleton: where the faculty dataset came from
CREATE TABLE IF NOT EXISTS dataset_source (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    path TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Singleton: last dataset analysis
CREATE TABLE IF NOT EXISTS dataset_analysis (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    embedding_columns TEXT NOT NULL,
    identifier_columns TEXT NOT NULL,
    program_columns TEXT NOT NULL,
    available_programs TEXT NOT NULL,
    updated_at TEXT
);

-- Row index side table for program and roster filtering
CREATE TABLE IF NOT EXISTS memberships (
    row_index INTEGER PRIMARY KEY,
    identifiers TEXT NOT NULL,
    programs TEXT NOT NULL
);

-- Singleton: explicit column choices, authoritative over inference
CREATE TABLE IF NOT EXISTS column_selection (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    embedding_columns TEXT NOT NULL,
    identifier_columns TEXT NOT NULL,
    program_columns TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per embedding index refresh
CREATE TABLE IF NOT EXISTS index_builds (
    id TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    total_rows INTEGER NOT NULL,
    embedded_rows INTEGER NOT NULL,
    skipped_rows INTEGER NOT NULL,
    generated_at TEXT,
    path TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Prompt vectors keyed by model and text digest
CREATE TABLE IF NOT EXISTS prompt_embeddings (
    model TEXT NOT NULL,
    text_hash TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    vector BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (model, text_hash)
);

CREATE INDEX IF NOT EXISTS idx_builds_created ON index_builds(created_at);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 2
