package tokenizer

import (
	"encoding/json"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// DocumentVersion is the schema version written by Save, mirroring the
// "version" field of a HuggingFace tokenizer.json document.
const DocumentVersion = "1.0"

// Document is the on-disk JSON schema a Pipeline is built from and saved
// to: one raw sub-message per stage kind, field order matching a
// HuggingFace tokenizer.json (version, truncation, padding, added_tokens,
// normalizer, pre_tokenizer, post_processor, decoder, model). Each
// RawMessage carries a "type" discriminator a builder switches on; the
// tokenizer package itself stays agnostic of which concrete stage types
// exist; a Document/Pipeline conversion lives with whatever package
// constructs the concrete stages (see tokenizers/hftokenizer).
type Document struct {
	Version       string          `json:"version"`
	Truncation    json.RawMessage `json:"truncation,omitempty"`
	Padding       json.RawMessage `json:"padding,omitempty"`
	AddedTokens   json.RawMessage `json:"added_tokens,omitempty"`
	Normalizer    json.RawMessage `json:"normalizer,omitempty"`
	PreTokenizer  json.RawMessage `json:"pre_tokenizer,omitempty"`
	PostProcessor json.RawMessage `json:"post_processor,omitempty"`
	Decoder       json.RawMessage `json:"decoder,omitempty"`
	Model         json.RawMessage `json:"model"`
}

// FromString parses a Document from an in-memory JSON document.
func FromString(data string) (*Document, error) {
	return FromBytes([]byte(data))
}

// FromBytes parses a Document from raw JSON bytes.
func FromBytes(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	return &doc, nil
}

// FromFile reads and parses a tokenizer.json document from disk, using a
// memory map for files above mmapThreshold so loading a large vocabulary
// doesn't require reading the whole file into the Go heap up front.
const mmapThreshold = 4 << 20 // 4 MiB

func FromFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}

	if info.Size() < mmapThreshold {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(ErrIO, err.Error())
		}
		return FromBytes(data)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	defer m.Unmap()
	return FromBytes(m)
}

// ToBytes marshals a Document with the version field populated, matching
// the field order a HuggingFace tokenizer.json uses.
func (d *Document) ToBytes() ([]byte, error) {
	d.Version = DocumentVersion
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	return data, nil
}

// Save writes the Document to path.
func (d *Document) Save(path string) error {
	data, err := d.ToBytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}
