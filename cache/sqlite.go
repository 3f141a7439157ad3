/*
 * sqlite.go, part of mdrms
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

package cache

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rmera/mdrms/table"
	_ "modernc.org/sqlite"
)

// SQLiteSchema creates the table where results are kept.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS results (
	key TEXT PRIMARY KEY,
	csv BLOB NOT NULL,
	rows INTEGER NOT NULL,
	created INTEGER NOT NULL
);
`

// SQLiteStore keeps tables, as CSV text, in a SQLite database. One row per key.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating it if needed) the database in path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	S, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return S, nil
}

// NewSQLiteStore returns a store on an open database, creating the results table if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(SQLiteSchema); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (S *SQLiteStore) Close() error {
	return S.db.Close()
}

func (S *SQLiteStore) Get(ctx context.Context, key string) (*table.Table, error) {
	var data []byte
	err := S.db.QueryRowContext(ctx, "SELECT csv FROM results WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return table.Read(bytes.NewReader(data))
}

func (S *SQLiteStore) Put(ctx context.Context, key string, t *table.Table) error {
	var b bytes.Buffer
	if err := t.Write(&b); err != nil {
		return err
	}
	_, err := S.db.ExecContext(ctx, "INSERT OR REPLACE INTO results (key, csv, rows, created) VALUES (?, ?, ?, ?)",
		key, b.Bytes(), t.Len(), time.Now().Unix())
	return err
}

func (S *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := S.db.ExecContext(ctx, "DELETE FROM results WHERE key = ?", key)
	return err
}
