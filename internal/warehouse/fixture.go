package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FixtureRunner serves query results from JSON files named after the query,
// e.g. hot_days.json. Each file holds an array of row objects. It is used for
// offline runs and for tests.
type FixtureRunner struct {
	fsys fs.FS
}

// NewFixtureRunner serves fixtures from dir.
func NewFixtureRunner(dir string) *FixtureRunner {
	return NewFixtureRunnerFS(os.DirFS(dir))
}

// NewFixtureRunnerFS serves fixtures from an fs.FS.
func NewFixtureRunnerFS(fsys fs.FS) *FixtureRunner {
	return &FixtureRunner{fsys: fsys}
}

// Run reads <q.Name>.json. Numbers are kept as json.Number so integer columns
// round-trip exactly.
func (r *FixtureRunner) Run(ctx context.Context, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(r.fsys, FixtureFile(q.Name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", q.Name, ErrFixtureNotFound)
		}
		return nil, fmt.Errorf("read fixture %s: %w", q.Name, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", q.Name, err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// FixtureFile returns the file name holding the rows of the named query.
func FixtureFile(name string) string {
	return name + ".json"
}

// WriteFixture writes rows as the fixture of the named query under dir.
func WriteFixture(dir, name string, rows []Row) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture %s: %w", name, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dir, FixtureFile(name)), data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", name, err)
	}
	return nil
}
