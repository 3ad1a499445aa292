package exec

import (
	"context"

	"github.com/athenaq/athenaq/internal/observability"
)

// Collector drives the pagination loop, accumulating column metadata and row
// data into an in-memory table.
type Collector struct {
	Client Client
	// PageSize caps each page request; the service maximum is 1000.
	PageSize int
}

// Collect fetches every page of results for the execution. Column labels are
// captured from the first page's metadata and the duplicated header row is
// dropped from its data. Rows are appended in page order, within a page in
// service order; the loop stops when no next-page token is returned.
func (c *Collector) Collect(ctx context.Context, handle Handle) (Table, error) {
	pageSize := c.PageSize
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 1000
	}

	var table Table
	token := ""
	firstPage := true

	for {
		page, err := c.Client.FetchPage(ctx, handle, token, pageSize)
		if err != nil {
			return Table{}, &ServiceError{Op: "fetch result page", Err: err}
		}

		rows := page.Rows
		if firstPage {
			table.Columns = page.Columns
			if len(rows) > 0 {
				rows = rows[1:]
			}
			firstPage = false
		}
		table.Rows = append(table.Rows, rows...)
		observability.ObserveResultPage(len(rows))

		if page.NextToken == "" {
			return table, nil
		}
		token = page.NextToken
	}
}
