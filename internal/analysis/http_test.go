package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackinspect/pkrec/internal/kinematics"
	"github.com/trackinspect/pkrec/internal/session"
)

func TestHTTPAnalyzer(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"activity_type": "track inspection",
			"intensity_score": 73,
			"observations": ["two LI exceedances"],
			"recommendations": "schedule a geometry check",
			"compliance_level": "critical"
		}`))
	}))
	defer srv.Close()

	stats := session.SessionStats{SessionConfig: session.SessionConfig{
		Track:         "V2",
		StartPosition: 175.1,
		Direction:     kinematics.Decreasing,
		Thresholds:    kinematics.DefaultThresholds(),
	}}
	a, err := NewHTTPAnalyzer(srv.URL, "secret").Analyze(context.Background(), samplesN(2500), stats)
	require.NoError(t, err)

	assert.Equal(t, session.Critical, a.ComplianceLevel)
	assert.Equal(t, 73.0, a.IntensityScore)
	assert.Equal(t, []string{"two LI exceedances"}, a.Observations)

	assert.Equal(t, "V2", got.Track)
	assert.Equal(t, kinematics.Decreasing, got.Direction)
	assert.Equal(t, 2.8, got.Thresholds.Immediate)
	assert.Len(t, got.Samples, MaxRequestSamples)
}

func TestHTTPAnalyzerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad":
			_, _ = w.Write([]byte(`{not json`))
		default:
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	_, err := NewHTTPAnalyzer(srv.URL, "").Analyze(context.Background(), samplesN(60), session.SessionStats{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, err = NewHTTPAnalyzer(srv.URL+"/bad", "").Analyze(context.Background(), samplesN(60), session.SessionStats{})
	assert.ErrorContains(t, err, "decode analysis")

	_, err = NewHTTPAnalyzer("", "").Analyze(context.Background(), samplesN(60), session.SessionStats{})
	assert.Error(t, err)
}
