package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQueryRunner runs queries against BigQuery.
type BigQueryRunner struct {
	client   *bigquery.Client
	location string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewBigQueryRunner validates cfg and opens a BigQuery client with the
// service account credentials it carries.
func NewBigQueryRunner(ctx context.Context, cfg Config, logger *slog.Logger) (*BigQueryRunner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, option.WithCredentialsJSON(cfg.CredentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	return &BigQueryRunner{
		client:   client,
		location: cfg.Location,
		timeout:  cfg.QueryTimeout,
		logger:   logger,
	}, nil
}

// Run executes q and reads every row into memory.
func (r *BigQueryRunner) Run(ctx context.Context, q Query) ([]Row, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	query := r.client.Query(q.SQL)
	query.Location = r.location

	it, err := query.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery %s: %w", q.Name, err)
	}

	rows := make([]Row, 0, it.TotalRows)
	for {
		var values map[string]bigquery.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery %s: read row %d: %w", q.Name, len(rows), err)
		}
		row := make(Row, len(values))
		for k, v := range values {
			row[k] = v
		}
		rows = append(rows, row)
	}

	r.logger.Debug("bigquery query complete", "query", q.Name, "rows", len(rows))
	return rows, nil
}

// Close releases the BigQuery client.
func (r *BigQueryRunner) Close() error {
	return r.client.Close()
}
