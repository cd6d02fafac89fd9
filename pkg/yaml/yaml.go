package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	yaml3 "gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"
)

// Decoding is strict: unknown struct fields are rejected and the `validate`
// tags of all decoded structs are checked.

func newDecoder(r io.Reader) *yaml3.Decoder {
	// honors UTF-8 and UTF-16 byte order marks
	r = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	d := yaml3.NewDecoder(r)
	d.KnownFields(true)
	return d
}

func decode(d *yaml3.Decoder, o interface{}) error {
	err := d.Decode(o)
	if err != nil {
		return err
	}
	return ValidateStructs(o)
}

func ReadYamlFile(p string, o interface{}) error {
	b, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	err = ReadYamlBytes(b, o)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", p, err)
	}
	return nil
}

func ReadYamlString(s string, o interface{}) error {
	return ReadYamlBytes([]byte(s), o)
}

// ReadYamlBytes decodes the first document of b into o. An empty document leaves o untouched.
func ReadYamlBytes(b []byte, o interface{}) error {
	err := decode(newDecoder(bytes.NewReader(b)), o)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ReadYamlAllString decodes all documents of s. Empty documents are dropped.
func ReadYamlAllString(s string) ([]interface{}, error) {
	d := newDecoder(strings.NewReader(s))

	var docs []interface{}
	for {
		var o interface{}
		err := decode(d, &o)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(docs), err)
		}
		if o != nil {
			docs = append(docs, o)
		}
	}
}

func WriteYamlBytes(o interface{}) ([]byte, error) {
	return WriteYamlAllBytes([]interface{}{o})
}

// WriteYamlAllBytes writes the documents as a multi document stream with an indentation of 2.
func WriteYamlAllBytes(docs []interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml3.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, o := range docs {
		err := enc.Encode(o)
		if err != nil {
			return nil, err
		}
	}
	err := enc.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func WriteYamlAllString(docs []interface{}) (string, error) {
	b, err := WriteYamlAllBytes(docs)
	return string(b), err
}

// WriteJsonString returns the compact JSON form of o. Object keys are sorted,
// so equal documents always result in equal strings.
func WriteJsonString(o interface{}) (string, error) {
	b, err := WriteYamlBytes(o)
	if err != nil {
		return "", err
	}
	j, err := sigsyaml.YAMLToJSON(b)
	if err != nil {
		return "", err
	}
	return string(j), nil
}

func IsYamlFile(p string) bool {
	switch filepath.Ext(p) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// FixPathExt returns the variant of p with the other YAML extension if only
// that one exists. Otherwise p is returned unchanged.
func FixPathExt(p string) string {
	if _, err := os.Stat(p); err == nil || !IsYamlFile(p) {
		return p
	}
	other := strings.TrimSuffix(p, ".yml") + ".yaml"
	if strings.HasSuffix(p, ".yaml") {
		other = strings.TrimSuffix(p, ".yaml") + ".yml"
	}
	if _, err := os.Stat(other); err == nil {
		return other
	}
	return p
}
