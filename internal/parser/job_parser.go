package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/studiowebux/jobbench/internal/types"
	"gopkg.in/yaml.v3"
)

// LoadJob reads a job file. The format is chosen by extension: .yaml/.yml
// and .json are decoded as such, anything else as TOML.
func LoadJob(filePath string) (*types.Job, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &ConfigError{Path: filePath, Err: fmt.Errorf("failed to read job file: %w", err)}
	}

	job, err := ParseJob(data, formatFromPath(filePath))
	if err != nil {
		return nil, &ConfigError{Path: filePath, Err: err}
	}
	return job, nil
}

// Format identifies a job file encoding
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

func formatFromPath(filePath string) Format {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// ParseJob decodes a job from raw bytes and validates its required fields
func ParseJob(data []byte, format Format) (*types.Job, error) {
	job := &types.Job{}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, job); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		// UseNumber keeps large integers in the body intact
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(job); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		meta, err := toml.Decode(string(data), job)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		// Keys below free-form tables are never marked decoded
		for _, key := range meta.Undecoded() {
			if len(key) > 1 && (key[0] == "body" || key[0] == "headers") {
				continue
			}
			return nil, fmt.Errorf("unknown field %q", key.String())
		}
	}

	if err := validateJob(job); err != nil {
		return nil, err
	}
	job.Method = job.Method.OrDefault()
	return job, nil
}

func validateJob(job *types.Job) error {
	if strings.TrimSpace(job.URL) == "" {
		return fmt.Errorf("url is required")
	}
	for name := range job.Params {
		if !identPattern.MatchString(name) {
			return fmt.Errorf("param name %q is not a valid placeholder identifier", name)
		}
	}
	return nil
}
