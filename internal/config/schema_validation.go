package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	smaschema "github.com/Paintersrp/sma/schema"
)

const schemaResource = "config.v1.json"

var (
	schemaOnce   sync.Once
	configSchema *jsonschema.Schema
	schemaErr    error
)

// fieldAliases maps spellings users commonly write to the field they meant.
var fieldAliases = map[string]string{
	"exit_on":      "exitOn",
	"exiton":       "exitOn",
	"cascade_kill": "cascadeKill",
	"cascadekill":  "cascadeKill",
	"commands":     "start",
	"workdir":      "cwd",
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaResource, bytes.NewReader(smaschema.ConfigV1Schema)); err != nil {
			schemaErr = fmt.Errorf("add config schema: %w", err)
			return
		}
		if configSchema, schemaErr = compiler.Compile(schemaResource); schemaErr != nil {
			schemaErr = fmt.Errorf("compile config schema: %w", schemaErr)
		}
	})
	return configSchema, schemaErr
}

// validateAgainstSchema checks a decoded document against the embedded v1
// schema. Every violation is reported on its own line, keyed by field path.
func validateAgainstSchema(doc map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	value, err := toJSONValue(doc)
	if err != nil {
		return fmt.Errorf("prepare config for schema validation: %w", err)
	}

	err = schema.Validate(value)
	if err == nil {
		return nil
	}
	vErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	lines := violations(vErr)
	lines = append(lines, aliasHints(doc)...)
	return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(lines, "\n  - "))
}

// toJSONValue converts YAML decoded scalars into the JSON types the validator
// understands.
func toJSONValue(doc map[string]any) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// violations flattens the cause tree into sorted, de-duplicated leaf
// messages.
func violations(root *jsonschema.ValidationError) []string {
	seen := make(map[string]struct{})
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			seen[fmt.Sprintf("%s: %s", fieldPath(e.InstanceLocation), e.Message)] = struct{}{}
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(root)

	out := make([]string, 0, len(seen))
	for line := range seen {
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}

func aliasHints(doc map[string]any) []string {
	var hints []string
	for key := range doc {
		if want, ok := fieldAliases[strings.ToLower(key)]; ok && key != want {
			hints = append(hints, fmt.Sprintf("%s: did you mean %q?", key, want))
		}
	}
	sort.Strings(hints)
	return hints
}

// fieldPath renders a JSON pointer such as /start/1 as start[1].
func fieldPath(ptr string) string {
	var b strings.Builder
	for _, segment := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		if segment == "" {
			continue
		}
		if _, err := strconv.Atoi(segment); err == nil {
			fmt.Fprintf(&b, "[%s]", segment)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strings.NewReplacer("~1", "/", "~0", "~").Replace(segment))
	}
	if b.Len() == 0 {
		return "config"
	}
	return b.String()
}
