package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"midi-bridge/debug"
)

// entry is the on-disk shape of one range: {"start": 1, "end": 8, "offset": 80}
type entry struct {
	Start  *int `json:"start" yaml:"start"`
	End    *int `json:"end" yaml:"end"`
	Offset *int `json:"offset" yaml:"offset"`
}

func (e entry) toRange(name string) (Range, error) {
	if e.Start == nil || e.End == nil || e.Offset == nil {
		return Range{}, fmt.Errorf("%w: %q needs start, end and offset", ErrMalformed, name)
	}
	return Range{Name: name, Start: *e.Start, End: *e.End, Offset: *e.Offset}, nil
}

func fromRange(r Range) entry {
	start, end, offset := r.Start, r.End, r.Offset
	return entry{Start: &start, End: &end, Offset: &offset}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads a mapping file, or returns defaults if it is missing or unreadable.
// Key order in the file becomes match order.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			debug.Log("mapping", "read %s: %v, using defaults", path, err)
		}
		return Default(), nil
	}

	cfg, err := Parse(data, isYAML(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, o := range cfg.Overlaps() {
		debug.Log("mapping", "overlap: %s (first match wins)", o)
	}
	return cfg, nil
}

// Parse decodes a mapping document. Structural problems wrap ErrMalformed,
// bad ranges wrap ErrInvalidRange.
func Parse(data []byte, asYAML bool) (*Config, error) {
	var (
		ranges []Range
		err    error
	)
	if asYAML {
		ranges, err = decodeYAML(data)
	} else {
		ranges, err = decodeJSON(data)
	}
	if err != nil {
		return nil, err
	}
	return New(ranges...)
}

func decodeJSON(data []byte) ([]Range, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	var ranges []Range
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		name, _ := tok.(string)

		var e entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, name, err)
		}
		r, err := e.toRange(name)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: data after the top-level object", ErrMalformed)
	}
	return ranges, nil
}

func decodeYAML(data []byte) ([]Range, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	// empty document
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrMalformed)
	}

	var ranges []Range
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value

		var e entry
		if err := root.Content[i+1].Decode(&e); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, name, err)
		}
		r, err := e.toRange(name)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// Marshal encodes cfg in file order
func Marshal(cfg *Config, asYAML bool) ([]byte, error) {
	if asYAML {
		return encodeYAML(cfg)
	}
	return encodeJSON(cfg)
}

func encodeJSON(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range cfg.ranges {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(r.Name)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(fromRange(r))
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func encodeYAML(cfg *Config) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range cfg.ranges {
		var val yaml.Node
		if err := val.Encode(fromRange(r)); err != nil {
			return nil, err
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.Name},
			&val,
		)
	}
	return yaml.Marshal(root)
}

// Save writes cfg to path, creating the directory if needed
func Save(cfg *Config, path string) error {
	data, err := Marshal(cfg, isYAML(path))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	debug.Log("mapping", "saved %d ranges to %s", cfg.Len(), path)
	return nil
}
