package chart

import (
	"fmt"

	"github.com/dashforge/supergrid/pkg/errors"
)

// Datasource type identifiers accepted by the chart data API.
const (
	DatasourceTypeTable      = "table"
	DatasourceTypeDataset    = "dataset"
	DatasourceTypeQuery      = "query"
	DatasourceTypeSavedQuery = "saved_query"
	DatasourceTypeView       = "view"
)

// Datasource identifies the dataset a chart reads from.
type Datasource struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// NewDatasource returns a table datasource for the given dataset ID.
// Tables are the common case; set Type directly for the other kinds.
func NewDatasource(id int) Datasource {
	return Datasource{ID: id, Type: DatasourceTypeTable}
}

// UID returns the "<id>__<type>" form used in form data, e.g. "42__table".
func (d Datasource) UID() string {
	return fmt.Sprintf("%d__%s", d.ID, d.Type)
}

// Validate checks that the datasource has a positive ID and a type.
func (d Datasource) Validate() error {
	if d.ID <= 0 {
		return errors.New(errors.ErrCodeInvalidChart, "datasource ID must be positive, got %d", d.ID)
	}
	if d.Type == "" {
		return errors.New(errors.ErrCodeInvalidChart, "datasource type is required")
	}
	return nil
}
