package superset

import (
	"context"
	"encoding/json"

	"github.com/dashforge/supergrid/pkg/errors"
)

// SavedQuery is a SQL Lab query saved for reuse.
type SavedQuery struct {
	ID          int    `json:"id,omitempty"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	SQL         string `json:"sql,omitempty"`
	DatabaseID  int    `json:"db_id,omitempty"`
	Schema      string `json:"schema,omitempty"`
}

func (sq *SavedQuery) UnmarshalJSON(data []byte) error {
	type alias SavedQuery
	aux := struct {
		*alias
		// Reads nest the database reference.
		Database *struct {
			ID int `json:"id"`
		} `json:"database"`
	}{alias: (*alias)(sq)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Database != nil {
		sq.DatabaseID = aux.Database.ID
	}
	return nil
}

// SavedQueryService manages saved queries through the REST API.
type SavedQueryService struct {
	service
}

// Find lists saved queries matching the query and reports the total
// match count across all pages.
func (s *SavedQueryService) Find(ctx context.Context, q Query) ([]*SavedQuery, int, error) {
	raws, count, err := s.find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	queries := make([]*SavedQuery, 0, len(raws))
	for _, raw := range raws {
		var sq SavedQuery
		if err := json.Unmarshal(raw, &sq); err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode saved query list entry")
		}
		queries = append(queries, &sq)
	}
	return queries, count, nil
}

// FindOne returns the single saved query matching the query. Zero
// matches and several matches are both errors.
func (s *SavedQueryService) FindOne(ctx context.Context, q Query) (*SavedQuery, error) {
	matches, _, err := s.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no saved query matched the query")
	}
	if len(matches) > 1 {
		return nil, errors.New(errors.ErrCodeMultipleFound, "%d saved queries matched the query, expected one", len(matches))
	}
	return matches[0], nil
}

// Get retrieves one saved query by id.
func (s *SavedQueryService) Get(ctx context.Context, id int) (*SavedQuery, error) {
	var sq SavedQuery
	if err := s.fetch(ctx, id, &sq); err != nil {
		return nil, err
	}
	if sq.ID == 0 {
		sq.ID = id
	}
	return &sq, nil
}

// Create saves a new saved query and fills in its id.
func (s *SavedQueryService) Create(ctx context.Context, sq *SavedQuery) (int, error) {
	id, err := s.create(ctx, sq)
	if err != nil {
		return 0, err
	}
	sq.ID = id
	return id, nil
}

// Update overwrites an existing saved query.
func (s *SavedQueryService) Update(ctx context.Context, sq *SavedQuery) error {
	if sq.ID == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "saved query has no id, create it first")
	}
	return s.update(ctx, sq.ID, sq)
}

// Run executes the saved query against its database.
func (s *SavedQueryService) Run(ctx context.Context, sq *SavedQuery, limit int) (*QueryResult, error) {
	if sq.SQL == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "saved query %q has no sql", sq.Label)
	}
	return s.client.Databases.RunSQL(ctx, sq.DatabaseID, sq.SQL, SQLOptions{Limit: limit, Schema: sq.Schema})
}
