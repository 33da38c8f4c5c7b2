package superset

import (
	"context"
	"encoding/json"

	"github.com/dashforge/supergrid/pkg/chart"
	"github.com/dashforge/supergrid/pkg/errors"
)

// Dataset is a table or virtual (SQL-backed) datasource charts read
// from.
type Dataset struct {
	ID             int    `json:"id,omitempty"`
	TableName      string `json:"table_name"`
	Schema         string `json:"schema,omitempty"`
	Description    string `json:"description,omitempty"`
	Kind           string `json:"kind,omitempty"`
	DatasourceType string `json:"datasource_type,omitempty"`
	SQL            string `json:"sql,omitempty"`

	// DatabaseID is handled by the custom marshalling below: reads nest
	// it under "database", creation wants it as "database" and updates
	// as "database_id".
	DatabaseID int `json:"-"`

	// Columns holds the server's column descriptions verbatim. Read
	// only; the server derives columns itself.
	Columns json.RawMessage `json:"-"`
}

func (d *Dataset) UnmarshalJSON(data []byte) error {
	type alias Dataset
	aux := struct {
		*alias
		DatabaseID int `json:"database_id"`
		Database   *struct {
			ID int `json:"id"`
		} `json:"database"`
		Columns json.RawMessage `json:"columns"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.DatabaseID = aux.DatabaseID
	if aux.Database != nil {
		d.DatabaseID = aux.Database.ID
	}
	d.Columns = aux.Columns
	return nil
}

// MarshalJSON writes the database reference under the key the API
// expects for the dataset's lifecycle stage: "database" before the
// dataset has an id, "database_id" after.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	type alias Dataset
	aux := struct {
		*alias
		Database   int `json:"database,omitempty"`
		DatabaseID int `json:"database_id,omitempty"`
	}{alias: (*alias)(d)}
	if d.ID == 0 {
		aux.Database = d.DatabaseID
	} else {
		aux.DatabaseID = d.DatabaseID
	}
	return json.Marshal(aux)
}

// Datasource returns the reference charts use to point at the dataset.
func (d *Dataset) Datasource() chart.Datasource {
	typ := d.DatasourceType
	if typ == "" {
		typ = chart.DatasourceTypeTable
	}
	return chart.Datasource{ID: d.ID, Type: typ}
}

// DatasetService manages datasets through the REST API.
type DatasetService struct {
	service
}

// Find lists datasets matching the query and reports the total match
// count across all pages.
func (s *DatasetService) Find(ctx context.Context, q Query) ([]*Dataset, int, error) {
	raws, count, err := s.find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	datasets := make([]*Dataset, 0, len(raws))
	for _, raw := range raws {
		var d Dataset
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode dataset list entry")
		}
		datasets = append(datasets, &d)
	}
	return datasets, count, nil
}

// FindOne returns the single dataset matching the query. Zero matches
// and several matches are both errors.
func (s *DatasetService) FindOne(ctx context.Context, q Query) (*Dataset, error) {
	matches, _, err := s.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no dataset matched the query")
	}
	if len(matches) > 1 {
		return nil, errors.New(errors.ErrCodeMultipleFound, "%d datasets matched the query, expected one", len(matches))
	}
	return matches[0], nil
}

// Get retrieves one dataset by id.
func (s *DatasetService) Get(ctx context.Context, id int) (*Dataset, error) {
	var d Dataset
	if err := s.fetch(ctx, id, &d); err != nil {
		return nil, err
	}
	if d.ID == 0 {
		d.ID = id
	}
	return &d, nil
}

// Create saves a new dataset and fills in its id.
func (s *DatasetService) Create(ctx context.Context, d *Dataset) (int, error) {
	id, err := s.create(ctx, d)
	if err != nil {
		return 0, err
	}
	d.ID = id
	return id, nil
}

// Update overwrites an existing dataset.
func (s *DatasetService) Update(ctx context.Context, d *Dataset) error {
	if d.ID == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "dataset has no id, create it first")
	}
	return s.update(ctx, d.ID, d)
}

// Datasource resolves a table name to the datasource reference charts
// bind to. When several datasets share the name the first match wins,
// matching how the SQL Lab UI resolves names.
func (s *DatasetService) Datasource(ctx context.Context, tableName string) (chart.Datasource, error) {
	raws, _, err := s.find(ctx, Query{
		Filters: []Filter{Eq("table_name", tableName)},
		Columns: []string{"id", "datasource_type"},
	})
	if err != nil {
		return chart.Datasource{}, err
	}
	if len(raws) == 0 {
		return chart.Datasource{}, errors.New(errors.ErrCodeNotFound, "no dataset named %q", tableName)
	}

	var row struct {
		ID             int    `json:"id"`
		DatasourceType string `json:"datasource_type"`
	}
	if err := json.Unmarshal(raws[0], &row); err != nil {
		return chart.Datasource{}, errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode dataset list entry")
	}
	typ := row.DatasourceType
	if typ == "" {
		typ = chart.DatasourceTypeTable
	}
	return chart.Datasource{ID: row.ID, Type: typ}, nil
}

// Run executes the dataset's backing SQL against its database. Only
// virtual datasets carry SQL.
func (s *DatasetService) Run(ctx context.Context, d *Dataset, limit int) (*QueryResult, error) {
	if d.SQL == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dataset %q has no sql to run", d.TableName)
	}
	return s.client.Databases.RunSQL(ctx, d.DatabaseID, d.SQL, SQLOptions{Limit: limit, Schema: d.Schema})
}
