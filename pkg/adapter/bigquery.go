package adapter

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
)

// BigQuery streams rows into a table
type BigQuery interface {
	// Insert appends rows to datasetID.table. rows is a struct, a slice of structs
	// or bigquery.ValueSaver values, as accepted by bigquery.Inserter.
	Insert(ctx context.Context, datasetID, table string, rows any) error

	// Close releases the underlying client
	Close() error
}

type bigqueryClient struct {
	client *bigquery.Client
}

// NewBigQuery creates a new BigQuery client
func NewBigQuery(ctx context.Context, projectID string) (BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client", goerr.V("project", projectID))
	}

	return &bigqueryClient{
		client: client,
	}, nil
}

func (bq *bigqueryClient) Insert(ctx context.Context, datasetID, table string, rows any) error {
	inserter := bq.client.Dataset(datasetID).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return goerr.Wrap(err, "failed to insert rows",
			goerr.V("dataset", datasetID),
			goerr.V("table", table))
	}
	return nil
}

func (bq *bigqueryClient) Close() error {
	if err := bq.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close BigQuery client")
	}
	return nil
}
