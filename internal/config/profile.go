package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-hazard-outlook/internal/domain"
)

// Profile is a named set of hazard thresholds and estimation settings.
type Profile struct {
	Thresholds domain.Thresholds
	Mode       domain.CombineMode
	YearFloors map[domain.HazardType]int
}

// profileFile mirrors the YAML document layout.
type profileFile struct {
	Thresholds domain.Thresholds `yaml:"thresholds"`
	Mode       string            `yaml:"mode"`
	YearFloors map[string]int    `yaml:"year_floors"`
}

// DefaultProfile configures no thresholds, so every hazard feeds the combined flag.
func DefaultProfile() Profile {
	return Profile{
		Mode:       domain.CombineAny,
		YearFloors: copyFloors(domain.DefaultYearFloors),
	}
}

// LoadProfile reads a YAML hazard profile from path.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read hazard profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML hazard profile. Unknown keys are rejected so
// that a misspelled threshold is not silently left unconfigured.
//
//	thresholds:
//	  wind_speed: 25
//	  thunderstorm: false
//	mode: all
//	year_floors:
//	  thunderstorm: 2004
func ParseProfile(data []byte) (Profile, error) {
	var raw profileFile
	if err := yamlStrict(data, &raw); err != nil {
		return Profile{}, fmt.Errorf("parse hazard profile: %w", err)
	}

	mode, err := domain.ParseCombineMode(raw.Mode)
	if err != nil {
		return Profile{}, fmt.Errorf("parse hazard profile: %w", err)
	}

	floors := copyFloors(domain.DefaultYearFloors)
	for name, year := range raw.YearFloors {
		h, err := domain.ParseHazardType(name)
		if err != nil || h == "" {
			return Profile{}, fmt.Errorf("parse hazard profile: year floor for unknown hazard %q", name)
		}
		floors[h] = year
	}

	return Profile{Thresholds: raw.Thresholds, Mode: mode, YearFloors: floors}, nil
}

func yamlStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		// An empty document is a valid, empty profile.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func copyFloors(src map[domain.HazardType]int) map[domain.HazardType]int {
	out := make(map[domain.HazardType]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
