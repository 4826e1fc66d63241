package estimate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/incident-service/internal/config"
)

// ErrUnavailable signals that no estimate could be produced. Callers in the
// lifecycle service treat it as an absent value, never as an operation
// failure.
var ErrUnavailable = errors.New("estimate unavailable")

// Estimator maps a feature vector to a projected resolution duration in
// hours. The trained model is an external collaborator and may be absent.
type Estimator interface {
	Estimate(ctx context.Context, vector Vector) (float64, error)
}

// HTTPEstimator calls an external model server. An empty URL means the model
// is not deployed; every such call reports ErrUnavailable.
type HTTPEstimator struct {
	url    string
	client *http.Client
}

// NewHTTPEstimator builds an estimator from config. The client timeout keeps
// estimation a bounded, best-effort step.
func NewHTTPEstimator(cfg config.EstimatorConfig) *HTTPEstimator {
	return &HTTPEstimator{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

type estimateResponse struct {
	PredictedResolutionHours float64 `json:"predicted_resolution_hours"`
}

// Estimate posts the vector to the model server and returns the projected
// hours. Any transport or decoding failure maps to ErrUnavailable.
func (e *HTTPEstimator) Estimate(ctx context.Context, vector Vector) (float64, error) {
	if e == nil || e.url == "" {
		return 0, ErrUnavailable
	}

	body, err := json.Marshal(vector)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: model server returned %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decoded.PredictedResolutionHours, nil
}
