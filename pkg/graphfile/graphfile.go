// Package graphfile reads and writes edge-list graphs as JSON or YAML,
// optionally snappy-compressed (a trailing .sz extension), from local files
// or S3 objects.
package graphfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
)

// Format is a graph file encoding
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

var (
	ErrEmptyFile         = errors.New("graph file is empty")
	ErrUnsupportedFormat = errors.New("unsupported graph file format")
)

// compressedExt marks a snappy-compressed graph file, e.g. graph.json.sz
const compressedExt = ".sz"

func isCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), compressedExt)
}

// FormatOf picks the encoding from the file extension, looking through a
// trailing .sz
func FormatOf(path string) (Format, error) {
	if isCompressed(path) {
		path = path[:len(path)-len(compressedExt)]
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a graph file through a read-only memory mapping
func Load(path string) (*louvain.Graph, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer reader.Close()

	if reader.Len() == 0 {
		return nil, ErrEmptyFile
	}
	data := make([]byte, reader.Len())
	if _, err := reader.ReadAt(data, 0); err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	return decodeFile(path, data, format)
}

// decodeFile decompresses data when path ends in .sz, then decodes it
func decodeFile(path string, data []byte, format Format) (*louvain.Graph, error) {
	if isCompressed(path) {
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress graph file: %w", err)
		}
		data = decoded
	}
	return Decode(data, format)
}

// Decode parses a graph in the given format.
// YAML documents are normalised to JSON first so both formats share the
// same node shorthand (a bare string or an object).
func Decode(data []byte, format Format) (*louvain.Graph, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML graph: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML graph: %w", err)
		}
		data = converted
	}

	var g louvain.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}
	return &g, nil
}

// Encode renders a graph in the given format
func Encode(g *louvain.Graph, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, err
	}
	if format == FormatJSON {
		return append(data, '\n'), nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// Save writes a graph, choosing the encoding and compression from the extension
func Save(path string, g *louvain.Graph) error {
	data, err := encodeFile(path, g)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func encodeFile(path string, g *louvain.Graph) ([]byte, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := Encode(g, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	if isCompressed(path) {
		data = snappy.Encode(nil, data)
	}
	return data, nil
}
