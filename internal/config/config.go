// Package config loads and saves YAML preset files for the processing
// pipeline. A preset carries the same knobs as the command-line flags;
// flag values override preset values.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/soundmend/soundmend/internal/processor"
)

// Stage mirrors processor.StageConfig with YAML field names.
type Stage struct {
	Enabled  bool `yaml:"enabled"`
	Strength int  `yaml:"strength"`
}

// Tone holds the three band adjustments in dB.
type Tone struct {
	LowDB  float64 `yaml:"low"`
	MidDB  float64 `yaml:"mid"`
	HighDB float64 `yaml:"high"`
}

// Config is the on-disk preset format.
type Config struct {
	AutoTune  bool    `yaml:"autoTune"`
	Intensity float64 `yaml:"intensity"`
	MainsAuto bool    `yaml:"mainsAuto"`
	OutputDir string  `yaml:"outputDir,omitempty"`
	ReportDir string  `yaml:"reportDir,omitempty"`

	NoiseSuppression     Stage `yaml:"noiseSuppression"`
	TransientSuppression Stage `yaml:"transientSuppression"`
	VoiceIsolation       Stage `yaml:"voiceIsolation"`
	SpectralRepair       Stage `yaml:"spectralRepair"`
	DynamicEQ            Stage `yaml:"dynamicEQ"`
	DeClickDeChirp       Stage `yaml:"deClickDeChirp"`

	Tone Tone `yaml:"tone"`
}

// Default returns the neutral preset: every enhancement stage disabled
// at strength 50, tone flat, full auto-tune intensity.
func Default() Config {
	neutral := Stage{Enabled: false, Strength: 50}
	return Config{
		Intensity:            1.0,
		NoiseSuppression:     neutral,
		TransientSuppression: neutral,
		VoiceIsolation:       neutral,
		SpectralRepair:       neutral,
		DynamicEQ:            neutral,
		DeClickDeChirp:       neutral,
	}
}

// Load reads and validates a preset file. Unknown keys are rejected so
// typos surface immediately instead of silently falling back to
// defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a preset file.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the preset against the same ranges the pipeline
// enforces, plus the intensity range.
func (c Config) Validate() error {
	if c.Intensity < 0 || c.Intensity > 1 {
		return fmt.Errorf("intensity %.2f out of range 0-1", c.Intensity)
	}
	opts := c.Options()
	return opts.Validate()
}

// Options converts the preset into pipeline options.
func (c Config) Options() processor.Options {
	return processor.Options{
		NoiseSuppression:     processor.StageConfig(c.NoiseSuppression),
		TransientSuppression: processor.StageConfig(c.TransientSuppression),
		VoiceIsolation:       processor.StageConfig(c.VoiceIsolation),
		SpectralRepair:       processor.StageConfig(c.SpectralRepair),
		DynamicEQ:            processor.StageConfig(c.DynamicEQ),
		DeClickDeChirp:       processor.StageConfig(c.DeClickDeChirp),
		LowBandDB:            c.Tone.LowDB,
		MidBandDB:            c.Tone.MidDB,
		HighBandDB:           c.Tone.HighDB,
	}
}
