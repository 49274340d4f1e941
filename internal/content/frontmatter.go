package content

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the YAML metadata block the site tool reads from each
// content file. Field order follows the tool's documented schema.
type FrontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Date        string `yaml:"date"`
	Draft       bool   `yaml:"draft"`
	Thumbnail   string `yaml:"thumbnail"`
	Lang        string `yaml:"lang"`
}

// ErrMissingClosingDelimiter indicates a document opened a front matter
// block without closing it.
var ErrMissingClosingDelimiter = errors.New("front matter opening delimiter found but closing delimiter is missing")

// EncodeDocument assembles a complete markdown document: `---` delimited
// YAML front matter followed by a blank line and the body.
func EncodeDocument(fm FrontMatter, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// SplitDocument separates the front matter block from the markdown body.
// A document without a front matter block returns nil meta and the full
// input as body. The blank separator line after the closing delimiter is
// formatting, not body, and is dropped.
func SplitDocument(doc []byte) (meta []byte, body []byte, err error) {
	open := []byte("---\n")
	if !bytes.HasPrefix(doc, open) {
		return nil, doc, nil
	}
	rest := doc[len(open):]
	idx := bytes.Index(rest, []byte("\n---\n"))
	if idx < 0 {
		return nil, nil, ErrMissingClosingDelimiter
	}
	body = bytes.TrimPrefix(rest[idx+len("\n---\n"):], []byte("\n"))
	return rest[:idx+1], body, nil
}

// DecodeFrontMatter parses a raw front matter block (without delimiters).
func DecodeFrontMatter(meta []byte) (FrontMatter, error) {
	var fm FrontMatter
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return FrontMatter{}, err
	}
	return fm, nil
}
