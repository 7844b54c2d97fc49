package workflow

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidEncoding = errors.New("content is not valid UTF-8")
	ErrNotMapping      = errors.New("document root is not a mapping")
	ErrMultipleDocs    = errors.New("expected a single document in the stream")
	ErrDuplicateKey    = errors.New("duplicate mapping key")
)

// ParseError reports a workflow file that could not be loaded. The file is
// excluded from evaluation; the scan continues with the next file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load parses workflow content into a YAML node tree whose root is a mapping.
// The stream must hold a single document and no mapping may repeat a key. An
// empty document loads as an empty mapping.
func Load(path string, content []byte) (*yaml.Node, error) {
	if !utf8.Valid(content) {
		return nil, &ParseError{Path: path, Err: ErrInvalidEncoding}
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return emptyRoot(nil), nil
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	var next yaml.Node
	if err := dec.Decode(&next); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("%w: another document starts on line %d", ErrMultipleDocs, next.Line)
		}
		return nil, &ParseError{Path: path, Err: err}
	}

	// comment-only input leaves the document without content
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return emptyRoot(nil), nil
	}

	root := resolve(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return emptyRoot(root), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Path: path, Err: ErrNotMapping}
	}
	if err := checkDuplicateKeys(root); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return root, nil
}

func emptyRoot(at *yaml.Node) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if at != nil {
		n.Line, n.Column = at.Line, at.Column
	}
	return n
}

// checkDuplicateKeys rejects mappings that declare the same key twice. Merge
// keys are exempt and aliases are checked where their anchor is defined.
func checkDuplicateKeys(n *yaml.Node) error {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.MappingNode {
		seen := make(map[string]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode || k.Value == mergeKey {
				continue
			}
			if first, ok := seen[k.Value]; ok {
				return fmt.Errorf("%w %q on line %d, first defined on line %d", ErrDuplicateKey, k.Value, k.Line, first)
			}
			seen[k.Value] = k.Line
		}
	}
	for _, c := range n.Content {
		if err := checkDuplicateKeys(c); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads a workflow file and loads it. Read failures are reported as
// ParseError as well.
func LoadFile(path string) (*yaml.Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Load(path, content)
}

// Parse loads and extracts a workflow document in one go.
func Parse(path string, content []byte) (*Document, error) {
	root, err := Load(path, content)
	if err != nil {
		return nil, err
	}
	return Extract(path, root), nil
}

// resolve follows alias nodes to their anchors.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}
