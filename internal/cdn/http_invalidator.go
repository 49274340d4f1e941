package cdn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/pressline/internal/config"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/logfields"
)

// HTTPInvalidator talks to the edge provider's invalidation API.
type HTTPInvalidator struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewHTTPInvalidator(cfg config.CDNConfig, logger *slog.Logger) *HTTPInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPInvalidator{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: cfg.TimeoutDuration()},
		logger:   logger,
	}
}

type invalidationRequest struct {
	DistributionID  string   `json:"distribution_id"`
	Paths           []string `json:"paths"`
	CallerReference string   `json:"caller_reference"`
}

type invalidationResponse struct {
	InvalidationID string `json:"invalidation_id"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

// Invalidate submits a full-path invalidation. A 2xx answer is an
// acknowledgement that the provider accepted the request; completion is the
// provider's business.
func (h *HTTPInvalidator) Invalidate(ctx context.Context, distributionID, callerReference string) (Ack, error) {
	payload, err := json.Marshal(invalidationRequest{
		DistributionID:  distributionID,
		Paths:           invalidationPaths,
		CallerReference: callerReference,
	})
	if err != nil {
		return Ack{}, perrors.InvalidationFailed(distributionID, err)
	}

	url := h.endpoint + "/invalidations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Ack{}, perrors.InvalidationFailed(distributionID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Ack{}, perrors.InvalidationFailed(distributionID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Ack{}, perrors.InvalidationFailed(distributionID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Ack{}, perrors.InvalidationFailed(distributionID,
			fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var decoded invalidationResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Ack{}, perrors.InvalidationFailed(distributionID, fmt.Errorf("decode response: %w", err))
	}
	if decoded.Error != "" {
		return Ack{}, perrors.InvalidationFailed(distributionID, fmt.Errorf("provider error: %s", decoded.Error))
	}

	ack := Ack{
		InvalidationID:  decoded.InvalidationID,
		CallerReference: callerReference,
		SubmittedAt:     time.Now().UTC(),
	}
	h.logger.Info("cache invalidation accepted",
		slog.String("distribution_id", distributionID),
		slog.String("invalidation_id", ack.InvalidationID),
		logfields.URL(url),
	)
	return ack, nil
}
