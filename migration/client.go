package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lixenwraith/spotglobe/parameter"
)

// ErrRejected is returned when the orchestration service refuses a migration
var ErrRejected = errors.New("migration: rejected by orchestration service")

// Request is the migrate call body
type Request struct {
	SourceRegion string `json:"sourceRegion"`
	TargetRegion string `json:"targetRegion"`
}

// Migrator performs the remote migration including its server-side dry run
// nil means the migration succeeded
type Migrator interface {
	Migrate(ctx context.Context, req Request) error
}

// Client calls POST <base>/migrate
type Client struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewClient(apiBase string, client *http.Client, log *zap.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: parameter.MigrateTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		url:    strings.TrimRight(apiBase, "/") + "/migrate",
		client: client,
		log:    log,
	}
}

// Migrate posts req; any non-2xx status is a rejection and the body is not interpreted
func (c *Client) Migrate(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode migrate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build migrate request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", parameter.UserAgent)
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post migrate: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	c.log.Debug("migrate_response",
		zap.String("request_id", requestID),
		zap.String("source", req.SourceRegion),
		zap.String("target", req.TargetRegion),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return nil
}
