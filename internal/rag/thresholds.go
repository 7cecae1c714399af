package rag

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds hold the RAG banding cutoffs for every evaluated dimension.
// Values follow common PMO tolerances; deployments can override them with a
// YAML file.
type Thresholds struct {
	Schedule BandFloat `yaml:"schedule"`
	Cost     BandFloat `yaml:"cost"`
	Quality  Quality   `yaml:"quality"`
	Risk     BandFloat `yaml:"risk"`
}

// BandFloat is a two-cutoff band. For index-style metrics (SPI/CPI) a value at
// or above GreenMin is green and at or above AmberMin is amber; for risk the
// comparisons invert (at or below).
type BandFloat struct {
	GreenMin float64 `yaml:"green_min"`
	AmberMin float64 `yaml:"amber_min"`
}

type Quality struct {
	GreenSev1Max int `yaml:"green_sev1_max"`
	GreenSev2Max int `yaml:"green_sev2_max"`
	AmberSev1Max int `yaml:"amber_sev1_max"`
	AmberSev2Max int `yaml:"amber_sev2_max"`
}

// DefaultThresholds mirrors the banding the reporting process has always used.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Schedule: BandFloat{GreenMin: 0.98, AmberMin: 0.90},
		Cost:     BandFloat{GreenMin: 0.98, AmberMin: 0.90},
		Quality:  Quality{GreenSev1Max: 0, GreenSev2Max: 0, AmberSev1Max: 0, AmberSev2Max: 3},
		Risk:     BandFloat{GreenMin: 0.3, AmberMin: 0.6},
	}
}

// LoadThresholds reads a YAML override file. Missing path returns defaults.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read rag thresholds: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse rag thresholds: %w", err)
	}
	return t, nil
}
