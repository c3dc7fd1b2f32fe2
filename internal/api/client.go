package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"photocapture/internal/metrics"
	"photocapture/internal/model"
)

const snapshotsPath = "/snapshots"

var ErrEmptyID = errors.New("snapshot id is required")

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

type Config struct {
	BaseURL      string // API root, e.g. http://localhost:3001/api
	AssetBaseURL string // root that photo references are appended to
	Timeout      time.Duration
}

// Client maps snapshot operations onto the backend REST API. It never retries.
type Client struct {
	baseURL      string
	assetBaseURL string
	httpClient   *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	assetBaseURL := strings.TrimRight(strings.TrimSpace(cfg.AssetBaseURL), "/")
	if assetBaseURL == "" {
		assetBaseURL = strings.TrimSuffix(baseURL, "/api")
	}

	return &Client{
		baseURL:      baseURL,
		assetBaseURL: assetBaseURL,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// List fetches every snapshot, in backend order.
func (c *Client) List(ctx context.Context) ([]model.Snapshot, error) {
	var snapshots []model.Snapshot
	if err := c.do(ctx, "list", http.MethodGet, snapshotsPath, nil, "", &snapshots); err != nil {
		return nil, err
	}
	if snapshots == nil {
		snapshots = []model.Snapshot{}
	}
	return snapshots, nil
}

// Create uploads the two photos as one multipart request.
func (c *Client) Create(ctx context.Context, req model.CreateRequest) (model.Snapshot, error) {
	if err := req.Validate(); err != nil {
		return model.Snapshot{}, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, photo := range req.Photos() {
		if err := writePhotoPart(writer, photo); err != nil {
			return model.Snapshot{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return model.Snapshot{}, err
	}

	var created model.Snapshot
	if err := c.do(ctx, "create", http.MethodPost, snapshotsPath, body, writer.FormDataContentType(), &created); err != nil {
		return model.Snapshot{}, err
	}
	return created, nil
}

// UpdateStatus applies a reviewer decision.
func (c *Client) UpdateStatus(ctx context.Context, id string, change model.StatusChange) (model.Snapshot, error) {
	if strings.TrimSpace(id) == "" {
		return model.Snapshot{}, ErrEmptyID
	}
	if err := model.ValidateStatusChange(change); err != nil {
		return model.Snapshot{}, err
	}
	payload, err := json.Marshal(model.NewStatusUpdate(change))
	if err != nil {
		return model.Snapshot{}, err
	}

	var updated model.Snapshot
	path := snapshotsPath + "/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, "update_status", http.MethodPatch, path, bytes.NewReader(payload), "application/json", &updated); err != nil {
		return model.Snapshot{}, err
	}
	return updated, nil
}

// Delete removes a snapshot. Any response body is discarded.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	return c.do(ctx, "delete", http.MethodDelete, snapshotsPath+"/"+url.PathEscape(id), nil, "", nil)
}

// ImageURL resolves a stored photo reference against the asset base.
func (c *Client) ImageURL(ref string) string {
	return c.assetBaseURL + "/" + strings.TrimLeft(ref, "/")
}

func writePhotoPart(writer *multipart.Writer, photo model.Photo) error {
	filename := photo.Filename
	if filename == "" {
		filename = string(photo.Slot) + "-photo.jpg"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, photo.Slot.FormField(), filename))
	header.Set("Content-Type", photo.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(photo.Data)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.BackendRequests.WithLabelValues(op, metrics.Outcome(err)).Inc()
		metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
