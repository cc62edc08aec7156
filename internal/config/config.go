package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config is a parsed pipeline configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Source   SourceConfig   `yaml:"source"`
	Sink     SinkConfig     `yaml:"sink"`
	Filters  []FilterConfig `yaml:"filters"`
}

// PipelineConfig names the pipeline and sizes its worker pool.
type PipelineConfig struct {
	Name    string `yaml:"name"`
	Workers int    `yaml:"workers"`
}

// SourceConfig selects where events come from.
type SourceConfig struct {
	Type string `yaml:"type"` // "file" | "store" | "stdin"
	Path string `yaml:"path"`
}

// SinkConfig selects where processed events go.
type SinkConfig struct {
	Type string `yaml:"type"` // "file" | "stdout"
	Path string `yaml:"path"`
}

// FilterConfig is one stage of the filter chain. Settings is handed to the
// filter's Init verbatim.
type FilterConfig struct {
	Use      string         `yaml:"use"`
	Alias    string         `yaml:"alias"`
	Settings map[string]any `yaml:"settings"`
}

// LoadMode controls how errors are handled during config loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadError represents an error that occurred during config loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for config loading.
const (
	ErrCodeNotFound = "CONFIG_NOT_FOUND"
	ErrCodeParse    = "CONFIG_PARSE"
	ErrCodeSchema   = "CONFIG_SCHEMA"
)

// Load reads and validates a YAML pipeline config file.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all schema errors.
func Load(path string, mode LoadMode) (*Config, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("cannot read config: %v", err)}}
	}
	return Parse(data, path, mode)
}

// Parse decodes and validates a YAML pipeline config.
func Parse(data []byte, filename string, mode LoadMode) (*Config, []error) {
	// Decode generically first so the document can be checked against the
	// schema as-is, unknown keys included.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}

	if errs := validateSchema(raw, mode); len(errs) > 0 {
		return nil, errs
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("invalid config: %v", err)}}
	}

	if cfg.Pipeline.Workers < 1 {
		cfg.Pipeline.Workers = 1
	}

	return &cfg, nil
}

// validateSchema unifies the decoded document with the embedded CUE schema
// and converts CUE errors into LoadErrors with positions.
func validateSchema(raw map[string]any, mode LoadMode) []error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		// The embedded schema is part of the binary; failing to compile it
		// is a build defect, not a user error.
		panic(fmt.Sprintf("config: embedded schema does not compile: %v", schema.Err()))
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	unified := def.Unify(ctx.Encode(raw))

	err := unified.Validate(cue.Concrete(false))
	if err == nil {
		return nil
	}

	var errs []error
	for _, cueErr := range cueerrors.Errors(err) {
		errs = append(errs, &LoadError{
			Code:    ErrCodeSchema,
			Message: cueErr.Error(),
			Pos:     cueErr.Position(),
		})
		if mode == LoadModeFailFast {
			break
		}
	}
	return errs
}
