package sequence

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-repcount/pkg/features"
)

// Pattern is a learned exercise template. It is read-only once generated.
type Pattern struct {
	Exercise         string    `yaml:"exercise" json:"exercise"`
	ExpectedDuration float64   `yaml:"expected_duration" json:"expected_duration"` // seconds
	VelocityTemplate []float32 `yaml:"velocity_template" json:"velocity_template"`
	Examples         int       `yaml:"examples,omitempty" json:"examples,omitempty"`
}

// Validate checks that the pattern can drive a detector.
func (p Pattern) Validate() error {
	if p.ExpectedDuration <= 0 {
		return fmt.Errorf("%w: expected duration %v must be positive", ErrInvalidPattern, p.ExpectedDuration)
	}
	if len(p.VelocityTemplate) == 0 {
		return fmt.Errorf("%w: empty velocity template", ErrInvalidPattern)
	}
	return nil
}

// TemplateFeatures returns the template as a feature sequence for DTW.
func (p Pattern) TemplateFeatures() []features.Features {
	return intensities(p.VelocityTemplate)
}

// ParsePattern decodes and validates a YAML pattern.
func ParsePattern(data []byte) (Pattern, error) {
	var p Pattern
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pattern{}, fmt.Errorf("decode pattern: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

// LoadPattern reads a YAML pattern file.
func LoadPattern(path string) (Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pattern{}, fmt.Errorf("read pattern: %w", err)
	}
	p, err := ParsePattern(data)
	if err != nil {
		return Pattern{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// SavePattern writes p as YAML.
func SavePattern(path string, p Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write pattern: %w", err)
	}
	return nil
}
