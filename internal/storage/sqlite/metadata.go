// ABOUTME: Persists the dataset analysis, row memberships, and dataset source
// ABOUTME: Metadata is replaced wholesale inside one transaction
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harper/facultymatch/internal/models"
)

// MetadataStore handles dataset metadata persistence
type MetadataStore struct {
	db *DB
}

// NewMetadataStore creates a new MetadataStore
func NewMetadataStore(db *DB) *MetadataStore {
	return &MetadataStore{db: db}
}

// Save replaces the stored analysis, memberships, and dataset path.
func (s *MetadataStore) Save(ctx context.Context, meta *models.DatasetMetadata) error {
	if meta == nil {
		return fmt.Errorf("metadata cannot be nil")
	}
	updatedAt := meta.UpdatedAt
	if updatedAt == "" {
		updatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	a := meta.Analysis
	embedding, err := encodeList(a.EmbeddingColumns)
	if err != nil {
		return err
	}
	identifier, err := encodeList(a.IdentifierColumns)
	if err != nil {
		return err
	}
	program, err := encodeList(a.ProgramColumns)
	if err != nil {
		return err
	}
	available, err := encodeList(a.AvailablePrograms)
	if err != nil {
		return err
	}

	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dataset_analysis (id, embedding_columns, identifier_columns, program_columns, available_programs, updated_at)
			VALUES (1, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				embedding_columns = excluded.embedding_columns,
				identifier_columns = excluded.identifier_columns,
				program_columns = excluded.program_columns,
				available_programs = excluded.available_programs,
				updated_at = excluded.updated_at
		`, embedding, identifier, program, available, updatedAt); err != nil {
			return fmt.Errorf("failed to save analysis: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM memberships"); err != nil {
			return fmt.Errorf("failed to clear memberships: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO memberships (row_index, identifiers, programs) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare membership insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, m := range meta.Memberships {
			ids, err := json.Marshal(nonNilMap(m.Identifiers))
			if err != nil {
				return fmt.Errorf("failed to encode identifiers: %w", err)
			}
			programs, err := encodeList(m.Programs)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, m.RowIndex, string(ids), programs); err != nil {
				return fmt.Errorf("failed to save membership for row %d: %w", m.RowIndex, err)
			}
		}

		if meta.DatasetPath != "" {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO dataset_source (id, path, updated_at) VALUES (1, ?, ?)
				ON CONFLICT(id) DO UPDATE SET path = excluded.path, updated_at = excluded.updated_at
			`, meta.DatasetPath, time.Now()); err != nil {
				return fmt.Errorf("failed to save dataset source: %w", err)
			}
		}
		return nil
	})
}

// Load returns the stored metadata, or nil when no analysis was saved.
func (s *MetadataStore) Load(ctx context.Context) (*models.DatasetMetadata, error) {
	var (
		meta                                      models.DatasetMetadata
		embedding, identifier, program, available string
		updatedAt                                 sql.NullString
	)
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT embedding_columns, identifier_columns, program_columns, available_programs, updated_at
		FROM dataset_analysis WHERE id = 1
	`).Scan(&embedding, &identifier, &program, &available, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	for _, field := range []struct {
		raw  string
		dest *[]string
	}{
		{embedding, &meta.Analysis.EmbeddingColumns},
		{identifier, &meta.Analysis.IdentifierColumns},
		{program, &meta.Analysis.ProgramColumns},
		{available, &meta.Analysis.AvailablePrograms},
	} {
		if err := decodeList(field.raw, field.dest); err != nil {
			return nil, err
		}
	}
	if updatedAt.Valid {
		meta.UpdatedAt = updatedAt.String
	}

	rows, err := s.db.conn.QueryContext(ctx, "SELECT row_index, identifiers, programs FROM memberships ORDER BY row_index")
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	meta.Memberships = []models.Membership{}
	for rows.Next() {
		var (
			m                 models.Membership
			ids, programsJSON string
		)
		if err := rows.Scan(&m.RowIndex, &ids, &programsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ids), &m.Identifiers); err != nil {
			return nil, fmt.Errorf("failed to decode identifiers for row %d: %w", m.RowIndex, err)
		}
		if err := decodeList(programsJSON, &m.Programs); err != nil {
			return nil, err
		}
		meta.Memberships = append(meta.Memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	path, err := s.DatasetPath(ctx)
	if err != nil {
		return nil, err
	}
	meta.DatasetPath = path
	return &meta, nil
}

// DatasetPath returns the recorded dataset location, or "" when unset.
func (s *MetadataStore) DatasetPath(ctx context.Context) (string, error) {
	var path string
	err := s.db.conn.QueryRowContext(ctx, "SELECT path FROM dataset_source WHERE id = 1").Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load dataset source: %w", err)
	}
	return path, nil
}

// Clear removes the analysis and memberships. The dataset source is kept.
func (s *MetadataStore) Clear(ctx context.Context) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM dataset_analysis"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM memberships")
		return err
	})
}

// SaveSelection records explicit column choices.
func (s *MetadataStore) SaveSelection(ctx context.Context, sel models.ColumnSelection) error {
	embedding, err := encodeList(sel.EmbeddingColumns)
	if err != nil {
		return err
	}
	identifier, err := encodeList(sel.IdentifierColumns)
	if err != nil {
		return err
	}
	program, err := encodeList(sel.ProgramColumns)
	if err != nil {
		return err
	}
	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO column_selection (id, embedding_columns, identifier_columns, program_columns, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding_columns = excluded.embedding_columns,
			identifier_columns = excluded.identifier_columns,
			program_columns = excluded.program_columns,
			updated_at = excluded.updated_at
	`, embedding, identifier, program, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save column selection: %w", err)
	}
	return nil
}

// LoadSelection returns the saved column choices, or nil when none exist.
func (s *MetadataStore) LoadSelection(ctx context.Context) (*models.ColumnSelection, error) {
	var embedding, identifier, program string
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT embedding_columns, identifier_columns, program_columns FROM column_selection WHERE id = 1
	`).Scan(&embedding, &identifier, &program)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load column selection: %w", err)
	}

	var sel models.ColumnSelection
	if err := decodeList(embedding, &sel.EmbeddingColumns); err != nil {
		return nil, err
	}
	if err := decodeList(identifier, &sel.IdentifierColumns); err != nil {
		return nil, err
	}
	if err := decodeList(program, &sel.ProgramColumns); err != nil {
		return nil, err
	}
	return &sel, nil
}

// ClearSelection drops saved column choices so inference applies again.
func (s *MetadataStore) ClearSelection(ctx context.Context) error {
	_, err := s.db.conn.ExecContext(ctx, "DELETE FROM column_selection")
	return err
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(raw string, dest *[]string) error {
	*dest = []string{}
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("failed to decode list: %w", err)
	}
	return nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
