/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is the persistence seam behind the catalog cache (§6, §3 "NEW — on-disk
// catalog cache"): the JSON file is the canonical interchange format, while a
// Store implementation is an optional local cache that lets a restart
// rehydrate without re-running generation for logs already classified.
type Store interface {
	LoadAll() ([]Template, error)
	SaveAll(templates []Template) error
	Close() error
}

// SqliteStore is a pure-Go (no cgo), local-disk Store backed by
// modernc.org/sqlite, grounded on rcliao-agent-memory's use of the same
// driver for an embedded local cache.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqliteStore opens (creating if necessary) a single-table sqlite cache
// at path.
func OpenSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open sqlite store %s: %w", path, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS templates (
		id INTEGER PRIMARY KEY,
		pattern TEXT NOT NULL,
		fragments TEXT NOT NULL,
		example TEXT,
		variables TEXT
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: init sqlite schema: %w", err)
	}
	return &SqliteStore{db: db}, nil
}

// LoadAll returns every cached template, ordered by id.
func (s *SqliteStore) LoadAll() ([]Template, error) {
	rows, err := s.db.Query(`SELECT id, pattern, fragments, example, variables FROM templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: sqlite query: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		var fragmentsJSON string
		var example sql.NullString
		var variablesJSON sql.NullString
		if err := rows.Scan(&t.ID, &t.Pattern, &fragmentsJSON, &example, &variablesJSON); err != nil {
			return nil, fmt.Errorf("catalog: sqlite scan: %w", err)
		}
		if err := json.Unmarshal([]byte(fragmentsJSON), &t.Fragments); err != nil {
			return nil, fmt.Errorf("catalog: sqlite decode fragments for id %d: %w", t.ID, err)
		}
		t.Example = example.String
		if variablesJSON.Valid && variablesJSON.String != "" {
			if err := json.Unmarshal([]byte(variablesJSON.String), &t.Variables); err != nil {
				return nil, fmt.Errorf("catalog: sqlite decode variables for id %d: %w", t.ID, err)
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveAll replaces the cache contents with templates, in one transaction.
func (s *SqliteStore) SaveAll(templates []Template) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("catalog: sqlite begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM templates`); err != nil {
		return fmt.Errorf("catalog: sqlite clear: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO templates (id, pattern, fragments, example, variables) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range templates {
		fragmentsJSON, err := json.Marshal(t.Fragments)
		if err != nil {
			return fmt.Errorf("catalog: sqlite encode fragments for id %d: %w", t.ID, err)
		}
		variablesJSON, err := json.Marshal(t.Variables)
		if err != nil {
			return fmt.Errorf("catalog: sqlite encode variables for id %d: %w", t.ID, err)
		}
		if _, err := stmt.Exec(t.ID, t.Pattern, string(fragmentsJSON), t.Example, string(variablesJSON)); err != nil {
			return fmt.Errorf("catalog: sqlite insert id %d: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// Close releases the underlying database handle.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// LoadFromStore rehydrates a Catalog from store, falling back to an empty
// catalog if the store has nothing cached yet.
func LoadFromStore(store Store) (*Catalog, error) {
	templates, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	c := New()
	for _, t := range templates {
		c.templates = append(c.templates, t)
		c.byPattern[t.Pattern] = t.ID
		if t.ID >= c.nextID {
			c.nextID = t.ID + 1
		}
	}
	return c, nil
}

// SaveToStore persists the catalog's current templates to store.
func (c *Catalog) SaveToStore(store Store) error {
	return store.SaveAll(c.Templates())
}
