package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	cblog "github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	apperrors "github.com/darksworm/backoffice/pkg/errors"
	"github.com/darksworm/backoffice/pkg/model"
)

// Page is one fetched page of a collection
type Page struct {
	Rows  []model.Row
	Total int
}

// Collection is a REST resource of rows: GET endpoint lists,
// POST creates, PUT endpoint/{id} updates and DELETE endpoint/{id} deletes.
type Collection struct {
	client   *Client
	endpoint string
}

// NewCollection binds a collection endpoint to a client
func NewCollection(client *Client, endpoint string) *Collection {
	return &Collection{client: client, endpoint: "/" + strings.Trim(endpoint, "/")}
}

// Endpoint returns the collection path
func (c *Collection) Endpoint() string { return c.endpoint }

// ListQuery encodes fetch parameters as the query string of a list request.
// Filters travel as JSON; sorts as "field:order" pairs in priority order.
func ListQuery(p model.FetchParams) url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Query != "" {
		q.Set("q", p.Query)
	}
	if !p.Filters.IsEmpty() {
		if data, err := json.Marshal(p.Filters.Normalized()); err == nil {
			q.Set("filters", string(data))
		}
	}
	if len(p.Sorts) > 0 {
		parts := make([]string, len(p.Sorts))
		for i, s := range p.Sorts {
			parts[i] = s.Field + ":" + string(s.Order)
		}
		q.Set("sort", strings.Join(parts, ","))
	}
	return q
}

// List fetches one page
func (c *Collection) List(ctx context.Context, p model.FetchParams) (Page, error) {
	path := c.endpoint
	if q := ListQuery(p).Encode(); q != "" {
		path += "?" + q
	}
	body, err := c.client.Get(ctx, path)
	if err != nil {
		return Page{}, err
	}
	page, perr := ParsePage(body)
	if perr != nil {
		return Page{}, perr.WithContext("endpoint", c.endpoint)
	}
	cblog.With("component", "api").Debug("Fetched page", "endpoint", c.endpoint, "rows", len(page.Rows), "total", page.Total)
	return page, nil
}

// ParsePage accepts a bare array or an object carrying the rows under
// items, data or rows and the count under total, totalRows or count.
func ParsePage(body []byte) (Page, *apperrors.AppError) {
	if !gjson.ValidBytes(body) {
		return Page{}, apperrors.New(apperrors.ErrorAPI, "INVALID_RESPONSE", "List response is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	list := doc
	if !doc.IsArray() {
		list = doc.Get("items")
		for _, key := range []string{"data", "rows"} {
			if list.Exists() {
				break
			}
			list = doc.Get(key)
		}
		if !list.IsArray() {
			return Page{}, apperrors.New(apperrors.ErrorAPI, "INVALID_RESPONSE", "List response has no rows")
		}
	}

	var rows []model.Row
	for _, item := range list.Array() {
		if !item.IsObject() {
			continue
		}
		if m, ok := item.Value().(map[string]any); ok {
			rows = append(rows, model.Row(m))
		}
	}
	total := len(rows)
	for _, key := range []string{"total", "totalRows", "count"} {
		if t := doc.Get(key); t.Exists() && t.Type == gjson.Number {
			total = int(t.Int())
			break
		}
	}
	return Page{Rows: rows, Total: total}, nil
}

func (c *Collection) itemPath(id any) string {
	return c.endpoint + "/" + url.PathEscape(model.KeyOf(id))
}

// Create posts a new record and returns what the server stored
func (c *Collection) Create(ctx context.Context, values map[string]any) (model.Row, error) {
	body, err := c.client.Post(ctx, c.endpoint, values)
	if err != nil {
		return nil, err
	}
	return rowOr(body, values), nil
}

// Update replaces the record id
func (c *Collection) Update(ctx context.Context, id any, values map[string]any) (model.Row, error) {
	body, err := c.client.Put(ctx, c.itemPath(id), values)
	if err != nil {
		return nil, err
	}
	return rowOr(body, values), nil
}

// Delete removes the record id
func (c *Collection) Delete(ctx context.Context, id any) error {
	_, err := c.client.Delete(ctx, c.itemPath(id))
	return err
}

// DeleteMany removes each id in turn and reports every failure
func (c *Collection) DeleteMany(ctx context.Context, ids []any) error {
	var errs []error
	for _, id := range ids {
		if err := c.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func rowOr(body []byte, fallback map[string]any) model.Row {
	if gjson.ValidBytes(body) {
		if m, ok := gjson.ParseBytes(body).Value().(map[string]any); ok {
			return model.Row(m)
		}
	}
	return model.Row(fallback).Clone()
}
