package graspplanning

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/graspplanner/logging"
)

// client is a Service backed by a remote Server.
type client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClientFromURL returns a Service that sends its calls to the server at baseURL.
func NewClientFromURL(baseURL string, httpClient *http.Client, logger logging.Logger) Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient, logger: logger}
}

func (c *client) PlanningQuery(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+QueryPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if id := RequestIDFromContext(ctx); id != "" {
		httpReq.Header.Set("X-Request-Id", id)
	}
	var resp Response
	status, err := c.do(httpReq, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return &resp, errors.Errorf("planning query rejected (%d): %s: %s", status, resp.ErrorKind, resp.Error)
	}
	return &resp, nil
}

func (c *client) Session(ctx context.Context) (SessionSnapshot, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+SessionPath, nil)
	if err != nil {
		return SessionSnapshot{}, err
	}
	var snapshot SessionSnapshot
	status, err := c.do(httpReq, &snapshot)
	if err != nil {
		return SessionSnapshot{}, err
	}
	if status != http.StatusOK {
		return SessionSnapshot{}, errors.Errorf("session request failed with status %d", status)
	}
	return snapshot, nil
}

func (c *client) do(httpReq *http.Request, out interface{}) (int, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Debugw("error closing response body", "error", err)
		}
	}()
	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return httpResp.StatusCode, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return httpResp.StatusCode, errors.Wrapf(err, "cannot decode response %q", string(data))
	}
	return httpResp.StatusCode, nil
}

// Close does nothing; the remote service keeps running.
func (c *client) Close(ctx context.Context) error {
	return nil
}
