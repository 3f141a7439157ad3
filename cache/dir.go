/*
 * dir.go, part of mdrms
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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rmera/mdrms/table"
)

// DirStore keeps each table as a CSV file, named after its key, in a directory.
type DirStore struct {
	Dir string
	//New tables are written zstd-compressed, with a .csv.zst extension.
	//Both kinds of files are found by Get regardless of this value.
	Compress bool
}

// NewDirStore returns a store in dir, which is created if needed.
func NewDirStore(dir string, compress bool) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &DirStore{Dir: dir, Compress: compress}, nil
}

// Path returns the file where a table under key is, or would be, stored.
func (D *DirStore) Path(key string) string {
	ext := ".csv"
	if D.Compress {
		ext = ".csv.zst"
	}
	return filepath.Join(D.Dir, key+ext)
}

func (D *DirStore) paths(key string) []string {
	p := filepath.Join(D.Dir, key)
	return []string{p + ".csv", p + ".csv.zst"}
}

func (D *DirStore) Get(ctx context.Context, key string) (*table.Table, error) {
	for _, p := range D.paths(key) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := table.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return t, err
	}
	return nil, ErrNotFound
}

func (D *DirStore) Put(ctx context.Context, key string, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.WriteFile(D.Path(key))
}

func (D *DirStore) Delete(ctx context.Context, key string) error {
	for _, p := range D.paths(key) {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
