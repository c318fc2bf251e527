// Package warehouse reads climate station rows from the data warehouse.
//
// A [Runner] executes one named SQL query and returns untyped rows. Runners
// compose as decorators: a [BigQueryRunner] or [FixtureRunner] at the bottom,
// wrapped by [InstrumentedRunner], [BreakerRunner] and [CachedRunner]. The
// typed [Source] maps rows onto domain records.
package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedValue is returned when a column holds a value that cannot be
	// converted to the expected type.
	ErrMalformedValue = errors.New("malformed value")
	// ErrMissingColumn is returned when a row lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrFixtureNotFound is returned by FixtureRunner when no file exists for a query.
	ErrFixtureNotFound = errors.New("fixture not found")
	// ErrUnavailable is returned while the circuit breaker refuses queries.
	ErrUnavailable = errors.New("warehouse unavailable")
)

// Row is one result row keyed by column name. NULL columns hold nil.
type Row map[string]any

// Query is a named SQL statement. Name identifies the logical source in logs,
// metrics and fixture files; SQL is the text sent to the warehouse.
type Query struct {
	Name string
	SQL  string
}

// Runner executes a query and returns every row of the result.
type Runner interface {
	Run(ctx context.Context, q Query) ([]Row, error)
}

// Config holds the BigQuery connection settings.
type Config struct {
	ProjectID       string
	CredentialsJSON []byte
	Location        string
	QueryTimeout    time.Duration
}

type serviceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// Validate checks the project id and the service account payload. The payload
// itself stays opaque; only the fields the client needs are checked.
func (c Config) Validate() error {
	if c.ProjectID == "" {
		return errors.New("warehouse project id is required")
	}
	if len(c.CredentialsJSON) == 0 {
		return errors.New("warehouse credentials are required")
	}
	var sa serviceAccount
	if err := json.Unmarshal(c.CredentialsJSON, &sa); err != nil {
		return fmt.Errorf("warehouse credentials are not valid JSON: %w", err)
	}
	if sa.Type != "service_account" {
		return fmt.Errorf("warehouse credentials type %q, want service_account", sa.Type)
	}
	if sa.ClientEmail == "" {
		return errors.New("warehouse credentials lack client_email")
	}
	if sa.PrivateKey == "" {
		return errors.New("warehouse credentials lack private_key")
	}
	if c.QueryTimeout < 0 {
		return errors.New("warehouse query timeout must not be negative")
	}
	return nil
}
