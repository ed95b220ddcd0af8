package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned when writing over an existing file without
// force.
var ErrConfigExists = errors.New("config file already exists")

// WriteTemplate writes the default config to path.
func WriteTemplate(path string, force bool) error {
	return Default().WriteFile(path, force)
}

// WriteFile encodes c as JSON or YAML, chosen by the extension of path. An
// existing file is only replaced when force is set.
func (c *Config) WriteFile(path string, force bool) error {
	kind, err := formatFor(path)
	if err != nil {
		return err
	}

	var data []byte
	switch kind {
	case formatJSON:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	default:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if force {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
		return fmt.Errorf("open config file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	return f.Close()
}
