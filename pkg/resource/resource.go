// Package resource reads named string values from structured configuration, grouped into sections.
//
// A YAML document maps section names to key/value pairs:
//
//	Info:
//	  SECRET_API_TOKEN: iAmPlaintextToken
//	  OBFUSCATED_API_TOKEN: AC0...
package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrConfigKeyMissing = errors.New("config key is missing")
)

// Source provides lookup of string values by section and key.
type Source interface {
	// String returns the value of key in section.
	// An error wrapping ErrConfigKeyMissing is returned if either doesn't exist.
	String(section, key string) (string, error)
}

// Document is a set of sections, each holding string values by key.
type Document map[string]map[string]string

var _ Source = (Document)(nil)

func (d Document) String(section, key string) (string, error) {
	values, ok := d[section]
	if !ok {
		return "", fmt.Errorf("%w: section '%s' not found", ErrConfigKeyMissing, section)
	}
	val, ok := values[key]
	if !ok {
		return "", fmt.Errorf("%w: key '%s' not found in section '%s'", ErrConfigKeyMissing, key, section)
	}
	return val, nil
}

// Set assigns key in section, creating the section if needed.
func (d Document) Set(section, key, value string) {
	values, ok := d[section]
	if !ok {
		values = map[string]string{}
		d[section] = values
	}
	values[key] = value
}

// Parse reads a Document from YAML.
func Parse(r io.Reader) (Document, error) {
	doc := Document{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to parse resource document: %w", err)
	}
	return doc, nil
}

// Write serializes doc as YAML.
func Write(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode resource document: %w", err)
	}
	return enc.Close()
}

// File is a Source backed by a YAML file on disk.
// The file is read once when loaded.
type File struct {
	path string
	doc  Document
}

var _ Source = (*File)(nil)

// LoadFile reads and parses the YAML file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource file '%s': %w", path, err)
	}
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &File{path: path, doc: doc}, nil
}

func (f *File) String(section, key string) (string, error) {
	val, err := f.doc.String(section, key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", f.path, err)
	}
	return val, nil
}

// Path returns the file this source was loaded from.
func (f *File) Path() string {
	return f.path
}

// SaveFile writes doc to path, replacing any existing content.
func SaveFile(path string, doc Document) error {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write resource file '%s': %w", path, err)
	}
	return nil
}
