package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.viam.com/graspplanner/logging"
)

// Format is the encoding of a config file.
type Format string

// The supported config formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format by file extension. Anything that is not YAML is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadEnvFile adds the variables of a dotenv file to the environment. Variables already set are
// kept.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "cannot load env file %q", path)
	}
	return nil
}

// Read reads a config from the given file, substituting environment variables first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, FormatFromPath(filePath), bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies where, if applicable, the file
// the reader originated from.
func FromReader(originalPath string, format Format, r io.Reader, logger logging.Logger) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		if data, err = yamlToJSON(data); err != nil {
			return nil, errors.Wrap(err, "failed to decode Config from yaml")
		}
	}

	cfg := &Config{ConfigFilePath: originalPath}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	if cfg.Planner.Name == "" {
		logger.Debugw("no planner configured, using the simulation", "planner", SimPlanner)
		cfg.Planner.Name = SimPlanner
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, errors.Wrap(err, "failed to process Config")
	}
	cfg.Planning = cfg.Planning.WithDefaults()
	return cfg, nil
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the json struct tags.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}

// Schema returns the JSON schema of a config file.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
