// Package apiclient talks to the tallybook HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/shared"
)

// Client issues JSON requests against the API. It never retries.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client. A nil httpClient gets a 30 second timeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &shared.TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &shared.TransportError{StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var problem httpx.ProblemDetail
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &problem) == nil && (problem.Detail != "" || problem.Title != "") {
		message = problem.Detail
		if message == "" {
			message = problem.Title
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrUnauthorized, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, message)
	}

	terr := &shared.TransportError{StatusCode: resp.StatusCode, Message: message}
	switch resp.StatusCode {
	case http.StatusUnprocessableEntity:
		terr.Err = shared.ErrAmountExceedsOutstanding
	case http.StatusBadRequest:
		terr.Err = shared.ErrValidation
	}
	return terr
}

func listQuery(filters map[string]string, p shared.Pagination) url.Values {
	q := url.Values{}
	for key, value := range filters {
		if value != "" {
			q.Set(key, value)
		}
	}
	p = p.Normalize()
	q.Set("pageNumber", strconv.Itoa(p.PageNumber))
	q.Set("pageSize", strconv.Itoa(p.PageSize))
	return q
}
