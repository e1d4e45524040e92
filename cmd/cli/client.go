package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iho/moveledger/internal/adapter/http/dto"
)

// apiClient talks to the moveledger HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
}

func (e *apiError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Body.Error, e.Status, e.Body.Message)
	}
	if e.Body.Error != "" {
		return fmt.Sprintf("%s (status %d)", e.Body.Error, e.Status)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// do sends a request and returns the raw response body of a 2xx answer.
func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, &apiErr.Body)
		return nil, apiErr
	}

	return raw, nil
}

func (c *apiClient) listMovements(ctx context.Context, movementType, clientID string) ([]dto.MovementResponse, error) {
	path := "/api/v1/movements"
	query := url.Values{}
	switch {
	case clientID != "":
		path = "/api/v1/clients/" + url.PathEscape(clientID) + "/movements"
	case movementType != "":
		query.Set("type", movementType)
	}

	raw, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var out []dto.MovementResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode movements: %w", err)
	}
	return out, nil
}

func (c *apiClient) getMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	return c.movement(ctx, http.MethodGet, "/api/v1/movements/"+url.PathEscape(id))
}

func (c *apiClient) reverseMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	return c.movement(ctx, http.MethodPost, "/api/v1/movements/"+url.PathEscape(id)+"/reverse")
}

func (c *apiClient) movement(ctx context.Context, method, path string) (*dto.MovementResponse, error) {
	raw, err := c.do(ctx, method, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out dto.MovementResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode movement: %w", err)
	}
	return &out, nil
}

func (c *apiClient) deleteMovement(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/movements/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *apiClient) exportMovements(ctx context.Context) (*dto.Archive, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/v1/movements/export", nil, nil)
	if err != nil {
		return nil, err
	}
	return dto.DecodeArchive(bytes.NewReader(raw))
}

func (c *apiClient) importMovements(ctx context.Context, archive *dto.Archive) (int, error) {
	var buf bytes.Buffer
	if err := dto.EncodeArchive(&buf, archive); err != nil {
		return 0, err
	}

	raw, err := c.do(ctx, http.MethodPost, "/api/v1/movements/import", nil, &buf)
	if err != nil {
		return 0, err
	}

	var out dto.ImportResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decode import response: %w", err)
	}
	return out.Imported, nil
}
