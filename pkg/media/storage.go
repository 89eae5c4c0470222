package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mo-amir99/coursehub-server-go/pkg/config"
	"github.com/mo-amir99/coursehub-server-go/pkg/metrics"
)

// ErrUnavailable is returned when uploads are not configured or the storage host is failing.
var ErrUnavailable = errors.New("media storage unavailable")

// Asset identifies an uploaded object.
type Asset struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Store is the subset of the storage host used by feature handlers.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (Asset, error)
	Delete(ctx context.Context, path string) error
}

// New returns a storage-zone client, or a store that always reports ErrUnavailable
// when credentials are missing.
func New(cfg config.MediaConfig) Store {
	if !cfg.Enabled() {
		return disabled{}
	}
	return NewStorageClient(cfg, &http.Client{Timeout: 60 * time.Second})
}

// StorageClient talks to a Bunny-style storage zone over HTTP. Calls go through a
// circuit breaker that opens after five consecutive failures.
type StorageClient struct {
	baseURL    string
	zone       string
	apiKey     string
	cdnURL     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
}

func NewStorageClient(cfg config.MediaConfig, httpClient *http.Client) *StorageClient {
	return &StorageClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		zone:       cfg.StorageZone,
		apiKey:     cfg.APIKey,
		cdnURL:     strings.TrimRight(cfg.CDNURL, "/"),
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "media-storage",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Upload stores data at path and returns its public CDN location.
func (c *StorageClient) Upload(ctx context.Context, path string, data []byte, contentType string) (Asset, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	path = strings.Trim(path, "/")

	err := c.do(ctx, http.MethodPut, path, bytes.NewReader(data), contentType, http.StatusOK, http.StatusCreated)
	metrics.RecordMediaUpload(strings.SplitN(path, "/", 2)[0], err)
	if err != nil {
		return Asset{}, err
	}
	return Asset{URL: c.cdnURL + "/" + path, Path: path}, nil
}

// Delete removes the object at path. A missing object is not an error.
func (c *StorageClient) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, strings.Trim(path, "/"), nil, "", http.StatusOK, http.StatusNoContent, http.StatusNotFound)
}

func (c *StorageClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, accepted ...int) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.zone, path)
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return struct{}{}, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("AccessKey", c.apiKey)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		for _, status := range accepted {
			if resp.StatusCode == status {
				return struct{}{}, nil
			}
		}
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return struct{}{}, fmt.Errorf("storage error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

type disabled struct{}

func (disabled) Upload(context.Context, string, []byte, string) (Asset, error) {
	return Asset{}, ErrUnavailable
}

func (disabled) Delete(context.Context, string) error { return nil }
