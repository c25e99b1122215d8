package cmd

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/trackinspect/pkrec/internal/config"
	"github.com/trackinspect/pkrec/internal/kinematics"
	"github.com/trackinspect/pkrec/internal/profile"
)

// Flags override the profile, the profile fills what flags leave empty, and
// thresholds fall back to the config.
func TestStartRequestPrecedence(t *testing.T) {
	saved := recordOpts
	savedProfile, savedCfg := activeProfile, cfg
	t.Cleanup(func() {
		recordOpts = saved
		activeProfile, cfg = savedProfile, savedCfg
	})

	rapid.Check(t, func(rt *rapid.T) {
		prof := &profile.Profile{
			Operator:         rapid.StringMatching(`[a-z]{0,6}`).Draw(rt, "prof_operator"),
			Train:            rapid.StringMatching(`[A-Z0-9]{0,4}`).Draw(rt, "prof_train"),
			DefaultTrack:     rapid.StringMatching(`LGV[12]`).Draw(rt, "prof_track"),
			DefaultDirection: rapid.SampledFrom([]kinematics.Direction{kinematics.Increasing, kinematics.Decreasing}).Draw(rt, "prof_dir"),
		}
		activeProfile = prof

		cfg = config.Defaults()
		limits := kinematics.Thresholds{Alert: 1.5, Intervention: 2.5, Immediate: 3.5}
		cfg.Thresholds = &limits

		recordOpts = saved
		recordOpts.operator = rapid.StringMatching(`[a-z]{0,6}`).Draw(rt, "flag_operator")
		recordOpts.track = rapid.SampledFrom([]string{"", "V1"}).Draw(rt, "flag_track")
		recordOpts.direction = rapid.SampledFrom([]string{"", "increasing", "decreasing"}).Draw(rt, "flag_dir")
		recordOpts.alert = rapid.SampledFrom([]float64{0, 0.8}).Draw(rt, "flag_alert")
		recordOpts.position = "12.5"

		req := startRequest()

		wantOperator := prof.Operator
		if recordOpts.operator != "" {
			wantOperator = recordOpts.operator
		}
		if req.Metadata.Operator != wantOperator {
			rt.Fatalf("operator = %q, want %q", req.Metadata.Operator, wantOperator)
		}
		if req.Metadata.Train != prof.Train {
			rt.Fatalf("train = %q, want profile value %q", req.Metadata.Train, prof.Train)
		}

		wantTrack := prof.DefaultTrack
		if recordOpts.track != "" {
			wantTrack = recordOpts.track
		}
		if req.Track != wantTrack {
			rt.Fatalf("track = %q, want %q", req.Track, wantTrack)
		}

		wantDir := prof.DefaultDirection
		if recordOpts.direction != "" {
			wantDir = kinematics.Direction(recordOpts.direction)
		}
		if req.Direction != wantDir {
			rt.Fatalf("direction = %q, want %q", req.Direction, wantDir)
		}

		wantAlert := limits.Alert
		if recordOpts.alert > 0 {
			wantAlert = recordOpts.alert
		}
		if req.Thresholds.Alert != wantAlert || req.Thresholds.Immediate != limits.Immediate {
			rt.Fatalf("thresholds = %+v, want alert %.1f immediate %.1f", req.Thresholds, wantAlert, limits.Immediate)
		}
		if req.StartPosition != "12.5" {
			rt.Fatalf("start position = %q", req.StartPosition)
		}
	})
}

func TestStartRequestWithoutProfile(t *testing.T) {
	saved := recordOpts
	savedProfile, savedCfg := activeProfile, cfg
	t.Cleanup(func() {
		recordOpts = saved
		activeProfile, cfg = savedProfile, savedCfg
	})

	activeProfile = nil
	cfg = config.Defaults()
	recordOpts = saved
	recordOpts.track = ""

	req := startRequest()
	if req.Track != "" {
		t.Fatalf("track = %q, want empty", req.Track)
	}
	if req.Thresholds != kinematics.DefaultThresholds() {
		t.Fatalf("thresholds = %+v, want defaults", req.Thresholds)
	}
}
