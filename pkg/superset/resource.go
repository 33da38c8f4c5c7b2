package superset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dashforge/supergrid/pkg/errors"
	"gopkg.in/yaml.v3"
)

// service is the plumbing shared by all resource services: URL
// construction, list queries, payload pruning and the export/import
// endpoints. The typed services embed it and add model-aware wrappers.
type service struct {
	client   *Client
	endpoint string

	mu   sync.Mutex
	info *endpointInfo
}

// Superset registers list routes with a trailing slash and item routes
// without one; mixing them up earns a redirect that drops the POST
// body.
func (s *service) listURL() string { return s.client.apiURL(s.endpoint + "/") }

func (s *service) itemURL(id int) string { return s.client.apiURL(s.endpoint, strconv.Itoa(id)) }

type listResponse struct {
	Count  int               `json:"count"`
	IDs    []int             `json:"ids"`
	Result []json.RawMessage `json:"result"`
}

// find runs a filtered list request and returns the raw rows plus the
// total match count across all pages.
func (s *service) find(ctx context.Context, q Query) ([]json.RawMessage, int, error) {
	encoded, err := q.encode()
	if err != nil {
		return nil, 0, err
	}
	var out listResponse
	if err := s.client.get(ctx, s.endpoint, s.listURL()+"?q="+encoded, &out); err != nil {
		return nil, 0, err
	}
	return out.Result, out.Count, nil
}

// fetch retrieves one resource by id and decodes it into out. The API
// nests the row under "result" with the id kept beside it.
func (s *service) fetch(ctx context.Context, id int, out any) error {
	var envelope struct {
		ID     int             `json:"id"`
		Result json.RawMessage `json:"result"`
	}
	if err := s.client.get(ctx, s.endpoint, s.itemURL(id), &envelope); err != nil {
		return err
	}
	if len(envelope.Result) == 0 {
		return errors.New(errors.ErrCodeSerialization, "%s %d response carried no result", s.endpoint, id)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return errors.Wrap(errors.ErrCodeSerialization, err, "failed to decode %s %d", s.endpoint, id)
	}
	return nil
}

// create adds a new resource and returns its id. The payload is pruned
// to the endpoint's add columns first; Superset rejects requests that
// carry anything else.
func (s *service) create(ctx context.Context, payload any) (int, error) {
	info, err := s.loadInfo(ctx)
	if err != nil {
		return 0, err
	}
	fields, err := pruneColumns(payload, info.AddColumns)
	if err != nil {
		return 0, err
	}

	var out struct {
		ID int `json:"id"`
	}
	if err := s.client.post(ctx, s.listURL(), fields, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// update overwrites a resource, pruned to the endpoint's edit columns.
func (s *service) update(ctx context.Context, id int, payload any) error {
	info, err := s.loadInfo(ctx)
	if err != nil {
		return err
	}
	fields, err := pruneColumns(payload, info.EditColumns)
	if err != nil {
		return err
	}
	if err := s.client.put(ctx, s.itemURL(id), fields, nil); err != nil {
		return err
	}
	s.client.uncache(ctx, s.endpoint, s.itemURL(id))
	return nil
}

// Delete removes the resource with the given id. Superset acknowledges
// a deletion with {"message": "OK"} rather than a bare 2xx, so the
// body is checked too.
func (s *service) Delete(ctx context.Context, id int) error {
	var out struct {
		Message string `json:"message"`
	}
	if err := s.client.del(ctx, s.itemURL(id), &out); err != nil {
		return err
	}
	if out.Message != "OK" {
		return errors.New(errors.ErrCodeInternal, "delete of %s %d not acknowledged: %q", s.endpoint, id, out.Message)
	}
	s.client.uncache(ctx, s.endpoint, s.itemURL(id))
	return nil
}

// Count returns the total number of resources on the endpoint.
func (s *service) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := s.client.get(ctx, s.endpoint, s.listURL(), &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Export downloads the resources with the given ids into w and reports
// the payload format: "zip" for bundles, "json" or "yaml" for the
// flat formats older instances still serve.
func (s *service) Export(ctx context.Context, ids []int, w io.Writer) (string, error) {
	if len(ids) == 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "export requires at least one id")
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	exportURL := s.client.apiURL(s.endpoint, "export/") + "?q=" + url.QueryEscape("["+strings.Join(parts, ",")+"]")

	data, contentType, err := s.client.getRaw(ctx, exportURL)
	if err != nil {
		return "", err
	}

	switch {
	case strings.HasPrefix(contentType, "application/zip"):
		if _, err := w.Write(data); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to write export")
		}
		return "zip", nil

	case strings.HasPrefix(contentType, "application/json"):
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "    "); err != nil {
			return "", errors.Wrap(errors.ErrCodeSerialization, err, "failed to format exported json")
		}
		if _, err := buf.WriteTo(w); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to write export")
		}
		return "json", nil

	case strings.HasPrefix(contentType, "application/text"), strings.HasPrefix(contentType, "text/yaml"):
		// Re-emit instead of copying so the output is normalized yaml
		// regardless of how the server formatted it.
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return "", errors.Wrap(errors.ErrCodeSerialization, err, "failed to parse exported yaml")
		}
		normalized, err := yaml.Marshal(doc)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeSerialization, err, "failed to format exported yaml")
		}
		if _, err := w.Write(normalized); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to write export")
		}
		return "yaml", nil

	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown export content type %q", contentType)
	}
}

// Import uploads a previously exported file. passwords supplies the
// database connection secrets that exports always omit, keyed by
// database name. With overwrite false the server refuses to touch
// resources that already exist.
func (s *service) Import(ctx context.Context, filename string, file io.Reader, overwrite bool, passwords map[string]string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return errors.New(errors.ErrCodeInvalidFormat, "import file %q needs a .zip or .json extension", filename)
	}

	secrets := make(map[string]string, len(passwords))
	for db, pwd := range passwords {
		secrets[fmt.Sprintf("databases/%s.yaml", db)] = pwd
	}
	secretsJSON, err := json.Marshal(secrets)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSerialization, err, "failed to encode import passwords")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="formData"; filename=%q`, filename)},
		"Content-Type":        {"application/" + ext},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to build import request")
	}
	if _, err := io.Copy(part, file); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to read import file")
	}
	if err := mw.WriteField("passwords", string(secretsJSON)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to build import request")
	}
	if err := mw.WriteField("overwrite", strconv.FormatBool(overwrite)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to build import request")
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to build import request")
	}

	var out struct {
		Message string `json:"message"`
	}
	importURL := s.client.apiURL(s.endpoint, "import/")
	if err := s.client.postMultipart(ctx, importURL, mw.FormDataContentType(), buf.Bytes(), &out); err != nil {
		return err
	}
	if out.Message != "OK" {
		return errors.New(errors.ErrCodeInternal, "import of %s not acknowledged: %q", filename, out.Message)
	}
	return nil
}

// endpointInfo lists the columns an endpoint accepts on create and
// update requests, fetched once per service from its _info route.
type endpointInfo struct {
	AddColumns  []string
	EditColumns []string
}

func (s *service) loadInfo(ctx context.Context) (*endpointInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info != nil {
		return s.info, nil
	}

	q := url.QueryEscape(`{"keys":["add_columns","edit_columns"]}`)
	var out struct {
		AddColumns []struct {
			Name string `json:"name"`
		} `json:"add_columns"`
		EditColumns []struct {
			Name string `json:"name"`
		} `json:"edit_columns"`
	}
	infoURL := s.client.apiURL(s.endpoint, "_info")
	if err := s.client.get(ctx, s.endpoint, infoURL+"?q="+q, &out); err != nil {
		return nil, err
	}

	info := &endpointInfo{
		AddColumns:  make([]string, 0, len(out.AddColumns)),
		EditColumns: make([]string, 0, len(out.EditColumns)),
	}
	for _, col := range out.AddColumns {
		info.AddColumns = append(info.AddColumns, col.Name)
	}
	for _, col := range out.EditColumns {
		info.EditColumns = append(info.EditColumns, col.Name)
	}
	s.info = info
	return info, nil
}

// pruneColumns marshals payload to a field map and drops every key the
// endpoint does not accept, including the id, which travels in the URL
// instead.
func pruneColumns(payload any, allowed []string) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialization, err, "failed to encode payload")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialization, err, "payload must encode to a json object")
	}

	keep := make(map[string]bool, len(allowed))
	for _, col := range allowed {
		keep[col] = true
	}
	for key := range fields {
		if key == "id" || !keep[key] {
			delete(fields, key)
		}
	}
	return fields, nil
}

// ObjectRef is a reference to another resource by id. List payloads
// expand these into objects ({"id": 5, "username": ...}) while create
// and update payloads want the bare integer, so both shapes decode and
// only the id is ever encoded.
type ObjectRef int

func (r *ObjectRef) UnmarshalJSON(data []byte) error {
	var id int
	if err := json.Unmarshal(data, &id); err == nil {
		*r = ObjectRef(id)
		return nil
	}
	var obj struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("object reference is neither an id nor an object: %w", err)
	}
	*r = ObjectRef(obj.ID)
	return nil
}
