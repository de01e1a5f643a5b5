// Package config handles loading and managing massbal configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/massbal/massbal/pkg/massbalance"
)

// Config is the top-level configuration for massbal.
type Config struct {
	Thresholds      ThresholdConfig                 `yaml:"thresholds"`
	Recommendations map[string]RecommendationConfig `yaml:"recommendations"`
	Quality         QualityConfig                   `yaml:"quality"`
	StressFactors   map[string]float64              `yaml:"stress_factors"`
	Input           InputConfig                     `yaml:"input"`
	Export          ExportConfig                    `yaml:"export"`
}

// ThresholdConfig controls zone boundaries.
type ThresholdConfig struct {
	NormalZMax            float64 `yaml:"normal_z_max"`
	ModerateZMax          float64 `yaml:"moderate_z_max"`
	MissingDegradantRatio float64 `yaml:"missing_degradant_ratio"`
	SignificanceZ         float64 `yaml:"significance_z"`
}

// RecommendationConfig overrides fields of a zone's recommendation.
// Empty fields keep the default text.
type RecommendationConfig struct {
	Interpretation string `yaml:"interpretation"`
	Action         string `yaml:"action"`
	Urgency        string `yaml:"urgency"`
}

// QualityConfig controls the non-fatal data-quality checks.
type QualityConfig struct {
	AssayMin              float64 `yaml:"assay_min"`
	AssayMax              float64 `yaml:"assay_max"`
	SuspiciousMassBalance float64 `yaml:"suspicious_mass_balance"`
}

// InputConfig controls record binding.
type InputConfig struct {
	DefaultAssayRSD    float64 `yaml:"default_assay_rsd"`
	DefaultImpurityRSD float64 `yaml:"default_impurity_rsd"`
}

// ExportConfig controls where rendered reports are exported.
type ExportConfig struct {
	Destination string `yaml:"destination"` // local dir, s3://bucket/prefix or gs://bucket/prefix
	Format      string `yaml:"format"`      // json, markdown, csv
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3Region    string `yaml:"s3_region"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	t := massbalance.DefaultThresholds()
	q := massbalance.DefaultQualityRules()
	return &Config{
		Thresholds: ThresholdConfig{
			NormalZMax:            t.NormalZMax,
			ModerateZMax:          t.ModerateZMax,
			MissingDegradantRatio: t.MissingDegradantRatio,
			SignificanceZ:         t.SignificanceZ,
		},
		Recommendations: map[string]RecommendationConfig{},
		Quality: QualityConfig{
			AssayMin:              q.AssayMin,
			AssayMax:              q.AssayMax,
			SuspiciousMassBalance: q.SuspiciousMassBalance,
		},
		StressFactors: map[string]float64{},
		Export: ExportConfig{
			Format: "json",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// FindConfigFile looks for .massbal/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".massbal", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ClassifierThresholds converts the threshold section for the classifier.
func (c *Config) ClassifierThresholds() massbalance.Thresholds {
	return massbalance.Thresholds{
		NormalZMax:            c.Thresholds.NormalZMax,
		ModerateZMax:          c.Thresholds.ModerateZMax,
		MissingDegradantRatio: c.Thresholds.MissingDegradantRatio,
		SignificanceZ:         c.Thresholds.SignificanceZ,
	}
}

// QualityRules converts the quality section for the assembler.
func (c *Config) QualityRules() massbalance.QualityRules {
	return massbalance.QualityRules{
		AssayMin:              c.Quality.AssayMin,
		AssayMax:              c.Quality.AssayMax,
		SuspiciousMassBalance: c.Quality.SuspiciousMassBalance,
	}
}

// RecommendationTable merges the configured overrides onto the default
// table. Keys are zone names, matched case-insensitively.
func (c *Config) RecommendationTable() map[massbalance.Zone]massbalance.Recommendation {
	table := massbalance.DefaultRecommendations()
	for key, o := range c.Recommendations {
		zone := massbalance.Zone(normalizeZone(key))
		rec := table[zone]
		if o.Interpretation != "" {
			rec.Interpretation = o.Interpretation
		}
		if o.Action != "" {
			rec.Action = o.Action
		}
		if o.Urgency != "" {
			rec.Urgency = massbalance.Urgency(o.Urgency)
		}
		table[zone] = rec
	}
	return table
}

// Resolver builds the recommendation resolver described by the config.
func (c *Config) Resolver() (*massbalance.Resolver, error) {
	return massbalance.NewResolver(c.RecommendationTable())
}

// Engine builds the classifier, resolver and assembler options described by
// the config. Invalid thresholds or recommendations are reported as
// massbalance.ErrConfiguration before any record is processed.
func (c *Config) Engine(opts ...massbalance.Option) (*massbalance.Assembler, error) {
	classifier, err := massbalance.NewClassifier(c.ClassifierThresholds())
	if err != nil {
		return nil, err
	}
	resolver, err := c.Resolver()
	if err != nil {
		return nil, err
	}
	base := []massbalance.Option{
		massbalance.WithQualityRules(c.QualityRules()),
		massbalance.WithStressFactors(c.StressFactors),
	}
	return massbalance.NewAssembler(classifier, resolver, append(base, opts...)...)
}

func normalizeZone(key string) string {
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(key)))
}
