package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Variant selects how an entry document obtains the agent executable.
type Variant string

const (
	// VariantDevelopment compiles the agent from source before launch.
	VariantDevelopment Variant = "development"
	// VariantProduction launches a prebuilt executable at a fixed path.
	VariantProduction Variant = "production"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantDevelopment || v == VariantProduction
}

// UnmarshalText rejects unknown variants.
func (v *Variant) UnmarshalText(text []byte) error {
	candidate := Variant(text)
	if !candidate.Valid() {
		return fmt.Errorf("unknown variant %q (want %s or %s)", text, VariantDevelopment, VariantProduction)
	}
	*v = candidate
	return nil
}

// Entry is the document the host reads to find the agent. The development
// variant carries a build section and names the build output; the
// production variant names the deployed executable only.
type Entry struct {
	Variant    Variant      `yaml:"variant"`
	Executable string       `yaml:"executable"`
	Args       []string     `yaml:"args,omitempty"`
	Sentinel   string       `yaml:"sentinel,omitempty"`
	Build      *BuildConfig `yaml:"build,omitempty"`
}

// NewEntry returns the entry document of variant v derived from cfg.
func NewEntry(cfg *Config, v Variant) (*Entry, error) {
	e := &Entry{Variant: v, Args: cfg.Agent.Args}
	if cfg.Agent.Sentinel != DefaultEntrySentinel {
		e.Sentinel = cfg.Agent.Sentinel
	}

	switch v {
	case VariantProduction:
		e.Executable = cfg.Package.DeployPath
	case VariantDevelopment:
		b := cfg.Build
		e.Build = &b
		e.Executable = filepath.Join(b.ProjectDir, "target", "release", b.Binary)
	default:
		return nil, fmt.Errorf("config: unknown variant %q", v)
	}
	return e, e.Validate()
}

// DefaultEntrySentinel is omitted from rendered entry documents.
const DefaultEntrySentinel = "ready"

// Validate checks variant-specific requirements.
func (e *Entry) Validate() error {
	switch e.Variant {
	case VariantProduction:
		if e.Executable == "" {
			return errors.New("config: production entry requires executable")
		}
		if e.Build != nil {
			return errors.New("config: production entry must not carry a build section")
		}
	case VariantDevelopment:
		if e.Build == nil {
			return errors.New("config: development entry requires a build section")
		}
		if e.Build.Binary == "" {
			return errors.New("config: development entry requires build.binary")
		}
	default:
		return fmt.Errorf("config: unknown variant %q", e.Variant)
	}
	return nil
}

// Marshal renders e as YAML.
func (e *Entry) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# botly entry (" + string(e.Variant) + ")\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("config: render entry: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: render entry: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseEntry decodes and validates an entry document.
func ParseEntry(data []byte) (*Entry, error) {
	var e Entry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("config: parsing entry: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// LoadEntry reads the entry document at path. A relative build.project_dir
// is resolved against the document's directory.
func LoadEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	e, err := ParseEntry(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	if e.Build != nil && !filepath.IsAbs(e.Build.ProjectDir) {
		e.Build.ProjectDir = filepath.Join(filepath.Dir(path), e.Build.ProjectDir)
	}
	return e, nil
}
