// Package profile manages the operator's persistent pkrec profile.
// The profile is stored at ~/.config/pkrec/profile.json and is created
// once via the interactive setup flow, then used to fill record defaults.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/trackinspect/pkrec/internal/config"
	"github.com/trackinspect/pkrec/internal/kinematics"
	"github.com/trackinspect/pkrec/internal/session"
)

// Profile holds operator-level defaults set during first-run setup.
type Profile struct {
	Operator         string               `json:"operator"`
	Line             string               `json:"line"`
	Train            string               `json:"train"`
	EngineNumber     string               `json:"engine_number"`
	TrainPosition    string               `json:"train_position"` // where the device sits in the train
	DefaultTrack     string               `json:"default_track"`
	DefaultDirection kinematics.Direction `json:"default_direction"`
}

// Metadata returns the profile's run metadata with an empty note.
func (p *Profile) Metadata() session.Metadata {
	if p == nil {
		return session.Metadata{}
	}
	return session.Metadata{
		Operator:      p.Operator,
		Line:          p.Line,
		Train:         p.Train,
		EngineNumber:  p.EngineNumber,
		TrainPosition: p.TrainPosition,
	}
}

func profilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.json"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'pkrec setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// RunSetup runs the interactive setup wizard on in/out and returns the
// resulting profile. If existing is non-nil, its values are the defaults for
// each prompt (edit mode).
func RunSetup(existing *Profile, in io.Reader, out io.Writer) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	prof := &Profile{DefaultDirection: kinematics.Increasing}
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │    pkrec — first-time setup     │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"  Operator name (shown in reports)", &prof.Operator},
		{"  Line", &prof.Line},
		{"  Train", &prof.Train},
		{"  Engine number", &prof.EngineNumber},
		{"  Device position in the train", &prof.TrainPosition},
		{"  Default track", &prof.DefaultTrack},
	}
	for _, f := range fields {
		v, err := ask(f.prompt, *f.dst)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	dir, err := ask("  Default direction (increasing/decreasing)", string(prof.DefaultDirection))
	if err != nil {
		return nil, err
	}
	prof.DefaultDirection = kinematics.Direction(strings.ToLower(dir))
	if !prof.DefaultDirection.Valid() {
		prof.DefaultDirection = kinematics.Increasing
	}

	fmt.Fprintln(out)
	return prof, nil
}
