package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file used when none is named.
const DefaultFileName = "config.json"

type format int

const (
	formatJSON format = iota
	formatYAML
)

func formatFor(path string) (format, error) {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	case "":
		return 0, fmt.Errorf("%s: config file has no extension; expected .json, .yaml or .yml", path)
	default:
		return 0, fmt.Errorf("%s: unsupported config extension %q; expected .json, .yaml or .yml", path, ext)
	}
}

// Load reads a config file. A relative cwd is resolved against the file's
// directory, and a file without a cwd runs its commands from that directory.
// A file without a version is read as CurrentVersion. The returned config
// still has to be validated.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	kind, err := formatFor(absPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist at %s", absPath)
		}
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config path %s is not a file", absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	raw, err := decodeRaw(kind, data)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}

	var cfg Config
	if err := decodeStrict(kind, data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	cfg.sourcePath = absPath
	cfg.exitOnField = "exitOn"
	dir := filepath.Dir(absPath)
	cwd := dir
	if cfg.Cwd != nil {
		cwd = resolveWorkdir(dir, os.ExpandEnv(*cfg.Cwd))
	}
	cfg.Cwd = &cwd
	return &cfg, nil
}

func decodeRaw(kind format, data []byte) (map[string]any, error) {
	var raw map[string]any
	switch kind {
	case formatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func decodeStrict(kind format, data []byte, cfg *Config) error {
	switch kind {
	case formatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		return decoder.Decode(cfg)
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		return decoder.Decode(cfg)
	}
}

func resolveWorkdir(base, workdir string) string {
	if workdir == "" {
		return base
	}
	if filepath.IsAbs(workdir) {
		return filepath.Clean(workdir)
	}
	return filepath.Clean(filepath.Join(base, workdir))
}
