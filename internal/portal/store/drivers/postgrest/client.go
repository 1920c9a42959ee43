package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ZhengkaiWang/sfin-admin/internal/portal/store"
)

var errMissingBaseURL = errors.New("postgrest: base URL is required")

// client wraps the table and rpc endpoints with auth headers and error
// mapping. All methods translate backend failures into the store sentinels
// so callers never see HTTP details.
type client struct {
	baseURL string
	key     string
	http    *http.Client
}

// get fetches rows from a table. filters are raw PostgREST query pairs,
// e.g. {"code": "eq.ABC", "order": "created_at.desc"}.
func (c *client) get(ctx context.Context, table string, filters url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.tableURL(table, filters), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// insert posts one row and decodes the created representation into out,
// which must be a pointer to a slice (the backend always returns arrays).
func (c *client) insert(ctx context.Context, table string, row, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.tableURL(table, nil), row)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")
	return c.do(req, out)
}

// update patches the rows matched by filters and decodes the updated
// representations. Conditional transitions rely on the filter matching
// nothing when the row was already consumed; the caller checks for an empty
// result.
func (c *client) update(ctx context.Context, table string, filters url.Values, patch, out any) error {
	req, err := c.newRequest(ctx, http.MethodPatch, c.tableURL(table, filters), patch)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")
	return c.do(req, out)
}

// count issues a HEAD with an exact count preference and parses the total
// from the Content-Range header.
func (c *client) count(ctx context.Context, table string, filters url.Values) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodHead, c.tableURL(table, filters), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if err := mapStatus(resp); err != nil {
		return 0, err
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

// rpc invokes a named procedure with a JSON argument object.
func (c *client) rpc(ctx context.Context, fn string, args, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/rest/v1/rpc/"+fn, args)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) tableURL(table string, filters url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(filters) > 0 {
		u += "?" + filters.Encode()
	}
	return u
}

func (c *client) newRequest(ctx context.Context, method, u string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("postgrest: decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return store.ErrPermissionDenied
	case resp.StatusCode == http.StatusConflict:
		return store.ErrAlreadyExists
	case resp.StatusCode == http.StatusNotFound:
		return store.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", store.ErrUnavailable, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("postgrest: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// parseContentRange extracts the total from a "0-24/3573" style header.
func parseContentRange(v string) (int64, error) {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("postgrest: unparsable content range %q", v)
	}
	return strconv.ParseInt(total, 10, 64)
}

// one unwraps the single-row result of a filtered insert or update. An
// empty array from a conditional update means the filter matched nothing.
func one[T any](rows []T) (T, error) {
	if len(rows) == 0 {
		var zero T
		return zero, store.ErrNotFound
	}
	return rows[0], nil
}
