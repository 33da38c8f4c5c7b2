package superset

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/dashforge/supergrid/pkg/errors"
)

// Database is a connection Superset queries through SQLAlchemy. The
// URI is write-only on the server side; reads come back with the
// password masked.
type Database struct {
	ID             int    `json:"id,omitempty"`
	DatabaseName   string `json:"database_name"`
	SQLAlchemyURI  string `json:"sqlalchemy_uri,omitempty"`
	Backend        string `json:"backend,omitempty"`
	ExposeInSQLLab bool   `json:"expose_in_sqllab"`
	AllowRunAsync  bool   `json:"allow_run_async"`
	AllowDML       bool   `json:"allow_dml"`
}

// DatabaseService manages database connections through the REST API
// and runs ad hoc SQL through SQL Lab.
type DatabaseService struct {
	service
}

// Find lists databases matching the query and reports the total match
// count across all pages.
func (s *DatabaseService) Find(ctx context.Context, q Query) ([]*Database, int, error) {
	raws, count, err := s.find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	databases := make([]*Database, 0, len(raws))
	for _, raw := range raws {
		var db Database
		if err := json.Unmarshal(raw, &db); err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode database list entry")
		}
		databases = append(databases, &db)
	}
	return databases, count, nil
}

// FindOne returns the single database matching the query. Zero matches
// and several matches are both errors.
func (s *DatabaseService) FindOne(ctx context.Context, q Query) (*Database, error) {
	matches, _, err := s.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no database matched the query")
	}
	if len(matches) > 1 {
		return nil, errors.New(errors.ErrCodeMultipleFound, "%d databases matched the query, expected one", len(matches))
	}
	return matches[0], nil
}

// Get retrieves one database by id.
func (s *DatabaseService) Get(ctx context.Context, id int) (*Database, error) {
	var db Database
	if err := s.fetch(ctx, id, &db); err != nil {
		return nil, err
	}
	if db.ID == 0 {
		db.ID = id
	}
	return &db, nil
}

// Create saves a new database connection and fills in its id.
func (s *DatabaseService) Create(ctx context.Context, db *Database) (int, error) {
	id, err := s.create(ctx, db)
	if err != nil {
		return 0, err
	}
	db.ID = id
	return id, nil
}

// Update overwrites an existing database connection.
func (s *DatabaseService) Update(ctx context.Context, db *Database) error {
	if db.ID == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "database has no id, create it first")
	}
	return s.update(ctx, db.ID, db)
}

// SQLOptions tune a SQL Lab execution.
type SQLOptions struct {
	// Limit caps the number of returned rows. Zero keeps the server's
	// default.
	Limit int

	// Schema scopes unqualified table names in the statement.
	Schema string
}

// ResultColumn describes one column of a SQL Lab result set.
type ResultColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is a SQL Lab result set. Rows are keyed by column name,
// the JSON result format SQL Lab produces.
type QueryResult struct {
	Columns []ResultColumn   `json:"columns"`
	Rows    []map[string]any `json:"data"`
	Status  string           `json:"status"`
}

// RunSQL executes a statement through SQL Lab and returns the result
// set. When the server truncates the result at its display limit the
// call fails rather than silently returning partial rows; raise
// SQLOptions.Limit or narrow the query.
func (s *DatabaseService) RunSQL(ctx context.Context, databaseID int, sql string, opts SQLOptions) (*QueryResult, error) {
	if databaseID <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "database id must be positive, got %d", databaseID)
	}
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sql statement is empty")
	}

	payload := map[string]any{
		"database_id": databaseID,
		"sql":         sql,
		// SQL Lab keys running queries by a client-generated id; reusing
		// one would make the server treat this as a resubmission.
		"client_id": uuid.NewString()[:8],
		"runAsync":  false,
	}
	if opts.Limit > 0 {
		payload["queryLimit"] = opts.Limit
	}
	if opts.Schema != "" {
		payload["schema"] = opts.Schema
	}

	var out struct {
		QueryResult
		DisplayLimitReached bool `json:"displayLimitReached"`
	}
	// SQL Lab predates the v1 API and is served from the host root.
	sqlURL := joinURL(s.client.host, "superset/sql_json/")
	if err := s.client.post(ctx, sqlURL, payload, &out); err != nil {
		return nil, err
	}
	if out.DisplayLimitReached {
		return nil, errors.New(errors.ErrCodeQueryLimit, "result truncated at the server's display limit, raise the limit or narrow the query")
	}
	return &out.QueryResult, nil
}
