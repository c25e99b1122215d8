package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/trackinspect/pkrec/internal/kinematics"
	"github.com/trackinspect/pkrec/internal/session"
)

// Request is the body posted to the analysis endpoint.
type Request struct {
	Track         string                `json:"track"`
	StartPosition float64               `json:"start_position"`
	Direction     kinematics.Direction  `json:"direction"`
	Thresholds    kinematics.Thresholds `json:"thresholds"`
	Stats         kinematics.Aggregate  `json:"stats"`
	Samples       []session.Sample      `json:"samples"`
}

// NewRequest builds the request for a session, reducing its samples.
func NewRequest(samples []session.Sample, stats session.SessionStats) Request {
	return Request{
		Track:         stats.Track,
		StartPosition: stats.StartPosition,
		Direction:     stats.Direction,
		Thresholds:    stats.Thresholds,
		Stats:         stats.Aggregate,
		Samples:       Reduce(samples),
	}
}

// HTTPAnalyzer posts sessions to a JSON endpoint that answers with an
// Analysis object.
type HTTPAnalyzer struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPAnalyzer returns an analyzer with a 60 second client timeout.
func NewHTTPAnalyzer(endpoint, apiKey string) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (h *HTTPAnalyzer) Analyze(ctx context.Context, samples []session.Sample, stats session.SessionStats) (session.Analysis, error) {
	if h.Endpoint == "" {
		return session.Analysis{}, fmt.Errorf("no analysis endpoint configured")
	}

	body, err := json.Marshal(NewRequest(samples, stats))
	if err != nil {
		return session.Analysis{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return session.Analysis{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.APIKey)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return session.Analysis{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return session.Analysis{}, fmt.Errorf("analysis service returned %s: %s",
			resp.Status, strings.TrimSpace(string(msg)))
	}

	var a session.Analysis
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return session.Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	return a, nil
}
