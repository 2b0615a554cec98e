// Package artifact saves and loads the trained bundle: the feature schema,
// the fitted encoder, the booster and a manifest that pins their hashes.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gyeh/readmit/internal/boost"
	"github.com/gyeh/readmit/internal/encode"
	"github.com/gyeh/readmit/internal/normalize"
	"github.com/gyeh/readmit/internal/schema"
)

const (
	ManifestFile = "manifest.yaml"
	SchemaFile   = "schema.yaml"
	EncoderFile  = "encoder.yaml"
	ModelFile    = "model.gob"
)

// ErrIntegrity is wrapped by every hash or consistency failure on load.
var ErrIntegrity = errors.New("artifact integrity check failed")

// Metrics are the held-out evaluation results recorded at training time.
type Metrics struct {
	TrainRows int          `yaml:"train_rows"`
	TestRows  int          `yaml:"test_rows"`
	LogLoss   float64      `yaml:"log_loss"`
	Report    boost.Report `yaml:"report"`
}

// Manifest describes one bundle.
type Manifest struct {
	ModelID   string            `yaml:"model_id"`
	CreatedAt time.Time         `yaml:"created_at"`
	Target    string            `yaml:"target"`
	Positive  string            `yaml:"positive"`
	Threshold float64           `yaml:"threshold"`
	Params    boost.Params      `yaml:"params"`
	Files     map[string]string `yaml:"files"` // file name -> hex SHA-256
	Metrics   Metrics           `yaml:"metrics"`
}

// Bundle is everything inference needs.
type Bundle struct {
	Manifest Manifest
	Schema   *schema.Schema
	Encoder  *encode.Encoder
	Booster  *boost.Booster
}

// Validate cross-checks the bundle parts. Every strict column must have a
// fill value inside its vocabulary, so a defaulted strict column can always
// be encoded.
func (b *Bundle) Validate() error {
	if b.Schema == nil || b.Encoder == nil || b.Booster == nil {
		return fmt.Errorf("%w: bundle is incomplete", ErrIntegrity)
	}
	if err := b.Schema.Validate(); err != nil {
		return err
	}
	if err := b.Encoder.CheckSchema(b.Schema); err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if n := b.Booster.NumFeatures(); n != b.Schema.Len() {
		return fmt.Errorf("%w: model has %d features, schema has %d", ErrIntegrity, n, b.Schema.Len())
	}
	for _, name := range b.Encoder.Strict() {
		c, _ := b.Schema.Column(name)
		if !b.Encoder.Contains(name, c.Fill) {
			return fmt.Errorf("%w: strict column %q fill %q is not a training category", ErrIntegrity, name, c.Fill)
		}
	}
	return nil
}

// Save writes the bundle into dir and records the file hashes in the
// manifest. A missing model ID or creation time is filled in.
func Save(dir string, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if b.Manifest.ModelID == "" {
		b.Manifest.ModelID = uuid.New().String()
	}
	if b.Manifest.CreatedAt.IsZero() {
		b.Manifest.CreatedAt = time.Now().UTC()
	}

	if err := b.Schema.Save(filepath.Join(dir, SchemaFile)); err != nil {
		return err
	}
	if err := b.Encoder.Save(filepath.Join(dir, EncoderFile)); err != nil {
		return err
	}
	if err := saveBooster(filepath.Join(dir, ModelFile), b.Booster); err != nil {
		return err
	}

	b.Manifest.Files = make(map[string]string, 3)
	for _, name := range []string{SchemaFile, EncoderFile, ModelFile} {
		sum, err := normalize.FileHash(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		b.Manifest.Files[name] = sum
	}

	data, err := yaml.Marshal(&b.Manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func saveBooster(path string, b *boost.Booster) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := b.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadManifest reads only the manifest of the bundle in dir.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.ModelID == "" {
		return nil, fmt.Errorf("%w: manifest has no model_id", ErrIntegrity)
	}
	return &m, nil
}

// Load reads the bundle in dir, verifying every file hash against the
// manifest before decoding it.
func Load(dir string) (*Bundle, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{SchemaFile, EncoderFile, ModelFile} {
		if err := verify(dir, name, m.Files[name]); err != nil {
			return nil, err
		}
	}

	s, err := schema.Load(filepath.Join(dir, SchemaFile))
	if err != nil {
		return nil, err
	}
	enc, err := encode.Load(filepath.Join(dir, EncoderFile))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, ModelFile))
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()
	booster, err := boost.Load(f)
	if err != nil {
		return nil, err
	}

	b := &Bundle{Manifest: *m, Schema: s, Encoder: enc, Booster: booster}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func verify(dir, name, want string) error {
	if want == "" {
		return fmt.Errorf("%w: manifest has no hash for %s", ErrIntegrity, name)
	}
	got, err := normalize.FileHash(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s hash %s does not match manifest %s", ErrIntegrity, name, got, want)
	}
	return nil
}
