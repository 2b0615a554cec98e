package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/readmit/internal/boost"
	"github.com/gyeh/readmit/internal/dataset"
)

// DefaultFields are the inputs a prediction front-end collects.
var DefaultFields = []string{"age", "time_in_hospital", "num_lab_procedures", "num_medications"}

// Config holds all runtime configuration for a readmit run.
type Config struct {
	DSN         string
	ArtifactDir string
	LogFormat   string // "text" or "json"
	LogLevel    string
	ConfigPath  string

	// train
	DataPath  string
	TestRatio float64
	Training  boost.Params
	Target    dataset.Target
	Strict    []string // categorical columns that reject unseen values

	// predict / serve / score
	Threshold float64
	Defaults  map[string]string // per-column reconciliation defaults, override schema fills
	Fields    []string          // columns exposed as form fields
	Addr      string
	Record    bool // log served predictions to the database

	InputPath  string
	OutputPath string
	Force      bool
	DryRun     bool

	// explicit holds the YAML keys already set on the command line.
	explicit map[string]bool
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	Target    *yamlTarget       `yaml:"target"`
	Training  *yamlTraining     `yaml:"training"`
	Strict    []string          `yaml:"strict"`
	Defaults  map[string]string `yaml:"defaults"`
	Fields    []string          `yaml:"fields"`
	Threshold float64           `yaml:"threshold"`
}

type yamlTarget struct {
	Column   string   `yaml:"column"`
	Positive string   `yaml:"positive"`
	Drop     []string `yaml:"drop"`
}

type yamlTraining struct {
	NEstimators     int     `yaml:"n_estimators"`
	LearningRate    float64 `yaml:"learning_rate"`
	MaxDepth        int     `yaml:"max_depth"`
	Subsample       float64 `yaml:"subsample"`
	ColsampleByTree float64 `yaml:"colsample_bytree"`
	Lambda          float64 `yaml:"lambda"`
	MinChildWeight  float64 `yaml:"min_child_weight"`
	MaxBins         int     `yaml:"max_bins"`
	Seed            int64   `yaml:"seed"`
	TestRatio       float64 `yaml:"test_ratio"`
}

// New returns a Config populated with the training defaults.
func New() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every unset training and inference field.
func (c *Config) ApplyDefaults() {
	if c.Training == (boost.Params{}) {
		c.Training = boost.DefaultParams()
	}
	if c.Target.Column == "" {
		c.Target = dataset.DefaultTarget
	}
	if c.TestRatio == 0 {
		c.TestRatio = 0.2
	}
	if len(c.Fields) == 0 {
		c.Fields = append([]string(nil), DefaultFields...)
	}
}

// MarkExplicit records settings given on the command line, by YAML key
// (for example "threshold" or "n_estimators"). LoadFromFile leaves them alone.
func (c *Config) MarkExplicit(keys ...string) {
	if c.explicit == nil {
		c.explicit = make(map[string]bool, len(keys))
	}
	for _, k := range keys {
		c.explicit[k] = true
	}
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Zero values in the file and settings marked explicit leave the current
// settings alone.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	c.ApplyDefaults()

	if t := yc.Target; t != nil {
		if t.Column != "" {
			c.Target.Column = t.Column
		}
		if t.Positive != "" {
			c.Target.Positive = t.Positive
		}
		if t.Drop != nil {
			c.Target.Drop = t.Drop
		}
	}
	if t := yc.Training; t != nil {
		c.mergeTraining(t)
	}
	if yc.Strict != nil && !c.explicit["strict"] {
		c.Strict = yc.Strict
	}
	if len(yc.Defaults) > 0 {
		if c.Defaults == nil {
			c.Defaults = make(map[string]string, len(yc.Defaults))
		}
		for k, v := range yc.Defaults {
			c.Defaults[k] = v
		}
	}
	if len(yc.Fields) > 0 {
		c.Fields = yc.Fields
	}
	if yc.Threshold != 0 && !c.explicit["threshold"] {
		c.Threshold = yc.Threshold
	}
	return c.validateModel()
}

func (c *Config) mergeTraining(t *yamlTraining) {
	p := &c.Training
	if t.NEstimators != 0 && !c.explicit["n_estimators"] {
		p.NEstimators = t.NEstimators
	}
	if t.LearningRate != 0 && !c.explicit["learning_rate"] {
		p.LearningRate = t.LearningRate
	}
	if t.MaxDepth != 0 && !c.explicit["max_depth"] {
		p.MaxDepth = t.MaxDepth
	}
	if t.Subsample != 0 {
		p.Subsample = t.Subsample
	}
	if t.ColsampleByTree != 0 {
		p.ColsampleByTree = t.ColsampleByTree
	}
	if t.Lambda != 0 {
		p.Lambda = t.Lambda
	}
	if t.MinChildWeight != 0 {
		p.MinChildWeight = t.MinChildWeight
	}
	if t.MaxBins != 0 {
		p.MaxBins = t.MaxBins
	}
	if t.Seed != 0 && !c.explicit["seed"] {
		p.Seed = t.Seed
	}
	if t.TestRatio != 0 && !c.explicit["test_ratio"] {
		c.TestRatio = t.TestRatio
	}
}

// validateModel checks the settings that a config file can change.
func (c *Config) validateModel() error {
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		return fmt.Errorf("test_ratio must be in (0,1), got %v", c.TestRatio)
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold must be in [0,1), got %v", c.Threshold)
	}
	if c.Target.Positive == "" {
		return fmt.Errorf("target.positive is required")
	}
	seen := make(map[string]bool, len(c.Strict))
	for _, name := range c.Strict {
		if name == "" || seen[name] {
			return fmt.Errorf("strict column list has an empty or duplicate entry %q", name)
		}
		seen[name] = true
	}
	return nil
}

// ValidateArtifacts checks that an artifact directory is configured.
func (c *Config) ValidateArtifacts() error {
	if c.ArtifactDir == "" {
		return fmt.Errorf("--artifacts or READMIT_ARTIFACTS is required")
	}
	return nil
}

// ValidateTrain checks the training input and output.
func (c *Config) ValidateTrain() error {
	if c.DataPath == "" {
		return fmt.Errorf("--data is required")
	}
	if _, err := os.Stat(c.DataPath); err != nil {
		return fmt.Errorf("data file not accessible: %w", err)
	}
	if err := c.ValidateArtifacts(); err != nil {
		return err
	}
	return c.validateModel()
}

// ValidateScore checks the batch input and output paths.
func (c *Config) ValidateScore() error {
	if err := c.ValidateArtifacts(); err != nil {
		return err
	}
	if c.InputPath == "" {
		return fmt.Errorf("--input is required")
	}
	if _, err := os.Stat(c.InputPath); err != nil {
		return fmt.Errorf("input file not accessible: %w", err)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("--output is required")
	}
	return nil
}

// ValidateWithDSN checks that a database DSN is configured.
func (c *Config) ValidateWithDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or READMIT_DB_URL is required")
	}
	return nil
}
