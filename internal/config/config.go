// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/jeranaias/doctalk/internal/util"
)

// CurrentVersion is written to new config files.
const CurrentVersion = "1"

// Backend names accepted by ollama.backend.
const (
	BackendCLI  = "cli"
	BackendHTTP = "http"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete doctalk configuration.
type Config struct {
	Version string `toml:"version"`

	// Model access
	Ollama OllamaConfig `toml:"ollama"`

	// Document loading (PDF text extraction and OCR)
	Document DocumentConfig `toml:"document"`

	// Transcript export
	Export ExportConfig `toml:"export"`

	// Terminal UI
	UI UIConfig `toml:"ui"`
}

// OllamaConfig selects how prompts reach the model.
type OllamaConfig struct {
	// Binary is the ollama executable used by the cli backend
	Binary string `toml:"binary" env:"DOCTALK_OLLAMA_BIN"`
	// Backend is "cli" (run the ollama binary) or "http" (talk to ollama serve)
	Backend string `toml:"backend" env:"DOCTALK_BACKEND"`
	// URL is the server address used by the http backend
	URL string `toml:"url" env:"DOCTALK_OLLAMA_URL"`
	// DefaultModel is selected at startup; empty opens the model picker
	DefaultModel string `toml:"default_model" env:"DOCTALK_MODEL"`
	// TimeoutSecs bounds one reply; 0 waits indefinitely
	TimeoutSecs int `toml:"timeout_secs" env:"DOCTALK_TIMEOUT_SECS"`
}

// DocumentConfig names the external tools used for PDFs.
type DocumentConfig struct {
	PdfToText   string `toml:"pdftotext" env:"DOCTALK_PDFTOTEXT_BIN"`
	PdfToPPM    string `toml:"pdftoppm" env:"DOCTALK_PDFTOPPM_BIN"`
	Tesseract   string `toml:"tesseract" env:"DOCTALK_TESSERACT_BIN"`
	OCRDPI      int    `toml:"ocr_dpi" env:"DOCTALK_OCR_DPI"`
	OCRLanguage string `toml:"ocr_language" env:"DOCTALK_OCR_LANG"`
	// Watch reloads the loaded document when it changes on disk
	Watch bool `toml:"watch" env:"DOCTALK_WATCH"`
}

// ExportConfig contains transcript export settings.
type ExportConfig struct {
	Pandoc string `toml:"pandoc" env:"DOCTALK_PANDOC_BIN"`
	// Dir is where exports without an explicit path are written
	Dir string `toml:"dir" env:"DOCTALK_EXPORT_DIR"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Markdown renders model replies as markdown
	Markdown bool `toml:"markdown" env:"DOCTALK_MARKDOWN"`
	// WordWrap is the wrap width for rendered replies; 0 disables wrapping
	WordWrap int `toml:"word_wrap" env:"DOCTALK_WORD_WRAP"`
	// NoColor disables styling
	NoColor bool `toml:"no_color"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Ollama: OllamaConfig{
			Binary:      "ollama",
			Backend:     BackendCLI,
			URL:         "http://127.0.0.1:11434",
			TimeoutSecs: 0,
		},
		Document: DocumentConfig{
			PdfToText:   "pdftotext",
			PdfToPPM:    "pdftoppm",
			Tesseract:   "tesseract",
			OCRDPI:      300,
			OCRLanguage: "eng",
			Watch:       false,
		},
		Export: ExportConfig{
			Pandoc: "pandoc",
			Dir:    ".",
		},
		UI: UIConfig{
			Markdown: true,
			WordWrap: 80,
		},
	}
}

// Timeout returns the reply timeout as a duration.
func (o OllamaConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the doctalk configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".doctalk"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath returns the path of the REPL history file.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.doctalk/config.toml when it exists, applies environment
// overrides and validates the result. Without a config file the defaults
// are used.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes path over cfg. Keys missing from the file keep the
// values already in cfg.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path atomically.
func SaveTOML(cfg *Config, path string) error {
	err := util.AtomicWrite(path, 0644, func(w io.Writer) error {
		fmt.Fprintln(w, "# doctalk configuration file")
		fmt.Fprintln(w, "# Generated by doctalk - edit with care")
		fmt.Fprintln(w, "")
		return toml.NewEncoder(w).Encode(cfg)
	})
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.Ollama.Backend {
	case BackendCLI:
		if strings.TrimSpace(c.Ollama.Binary) == "" {
			errs = append(errs, ValidationError{Field: "ollama.binary", Message: "must not be empty for the cli backend"})
		}
	case BackendHTTP:
		u, err := url.Parse(c.Ollama.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "ollama.url",
				Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.Ollama.URL),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "ollama.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: cli, http", c.Ollama.Backend),
		})
	}

	if c.Ollama.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "ollama.timeout_secs", Message: "must not be negative"})
	}

	if c.Document.OCRDPI < 72 || c.Document.OCRDPI > 1200 {
		errs = append(errs, ValidationError{
			Field:   "document.ocr_dpi",
			Message: fmt.Sprintf("%d is out of range (72-1200)", c.Document.OCRDPI),
		})
	}

	if c.UI.WordWrap < 0 || c.UI.WordWrap > 1000 {
		errs = append(errs, ValidationError{
			Field:   "ui.word_wrap",
			Message: fmt.Sprintf("%d is out of range (0-1000)", c.UI.WordWrap),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty fields from Default.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Ollama.Binary == "" {
		c.Ollama.Binary = defaults.Ollama.Binary
	}
	if c.Ollama.Backend == "" {
		c.Ollama.Backend = defaults.Ollama.Backend
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = defaults.Ollama.URL
	}

	if c.Document.PdfToText == "" {
		c.Document.PdfToText = defaults.Document.PdfToText
	}
	if c.Document.PdfToPPM == "" {
		c.Document.PdfToPPM = defaults.Document.PdfToPPM
	}
	if c.Document.Tesseract == "" {
		c.Document.Tesseract = defaults.Document.Tesseract
	}
	if c.Document.OCRDPI == 0 {
		c.Document.OCRDPI = defaults.Document.OCRDPI
	}
	if c.Document.OCRLanguage == "" {
		c.Document.OCRLanguage = defaults.Document.OCRLanguage
	}

	if c.Export.Pandoc == "" {
		c.Export.Pandoc = defaults.Export.Pandoc
	}
	if c.Export.Dir == "" {
		c.Export.Dir = defaults.Export.Dir
	}
}

// Migrate normalizes older spellings of settings.
func (c *Config) Migrate() error {
	switch strings.ToLower(strings.TrimSpace(c.Ollama.Backend)) {
	case "cli", "subprocess", "exec":
		c.Ollama.Backend = BackendCLI
	case "http", "api", "server":
		c.Ollama.Backend = BackendHTTP
	}
	c.Ollama.URL = strings.TrimRight(c.Ollama.URL, "/")
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies DOCTALK_* environment variables. Variables that
// are not set leave the corresponding fields untouched.
//
// Supported environment variables:
//   - DOCTALK_MODEL: overrides ollama.default_model
//   - DOCTALK_OLLAMA_BIN: overrides ollama.binary
//   - DOCTALK_BACKEND: overrides ollama.backend
//   - DOCTALK_OLLAMA_URL: overrides ollama.url
//   - DOCTALK_TIMEOUT_SECS: overrides ollama.timeout_secs
//   - DOCTALK_PDFTOTEXT_BIN, DOCTALK_PDFTOPPM_BIN, DOCTALK_TESSERACT_BIN
//   - DOCTALK_OCR_DPI, DOCTALK_OCR_LANG, DOCTALK_WATCH
//   - DOCTALK_PANDOC_BIN, DOCTALK_EXPORT_DIR
//   - DOCTALK_MARKDOWN, DOCTALK_WORD_WRAP
func (c *Config) ApplyEnvOverrides() error {
	return env.Parse(c)
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "ollama.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup resolves a dotted key against the toml tags of Config.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a setting", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ","); tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				lower := strings.ToLower(strVal)
				if lower != "yes" && lower != "no" {
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
				boolVal = lower == "yes"
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
			if tag == "" || tag == "-" {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, prefix+tag+".")
				continue
			}
			keys = append(keys, prefix+tag)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access, falling back to defaults on error.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
