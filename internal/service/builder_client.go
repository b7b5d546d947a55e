package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"juzbuild-api/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// BuilderClient polls the external site-builder job system for deployment
// status by website identifier. Generation and deployment themselves are the
// builder's business; this service only reads job state.
type BuilderClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewBuilderClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BuilderClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")

	return &BuilderClient{httpClient: client, logger: logger}
}

// JobStatus returns the builder's status document for one website,
// unchanged. Unknown websites map to ErrNotFound.
func (c *BuilderClient) JobStatus(ctx context.Context, websiteID string) (json.RawMessage, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("websiteId", websiteID).
		Get("/api/v1/jobs/status")
	if err != nil {
		return nil, fmt.Errorf("builder status request failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return json.RawMessage(resp.Body()), nil
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	default:
		c.logger.Error("builder returned unexpected status",
			zap.Int("status", resp.StatusCode()),
			zap.String("website_id", websiteID))
		return nil, fmt.Errorf("builder returned status %d", resp.StatusCode())
	}
}
