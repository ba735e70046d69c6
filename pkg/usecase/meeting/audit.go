package meeting

import (
	"context"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/adapter"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
)

// BigQueryAuditor streams audit events into a BigQuery table
type BigQueryAuditor struct {
	bq        adapter.BigQuery
	datasetID string
	table     string
}

func NewBigQueryAuditor(bq adapter.BigQuery, datasetID, table string) *BigQueryAuditor {
	return &BigQueryAuditor{
		bq:        bq,
		datasetID: datasetID,
		table:     table,
	}
}

func (a *BigQueryAuditor) Record(ctx context.Context, event *model.AuditEvent) error {
	return a.bq.Insert(ctx, a.datasetID, a.table, event)
}
