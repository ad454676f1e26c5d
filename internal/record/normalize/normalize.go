// Package normalize turns stored records into the single shape returned to
// clients.
//
// A stored document is either structured (a JSON object) or serialized (a
// JSON string whose contents are a JSON object, left behind by writers that
// encoded the payload twice). Decode detects which one it was handed;
// anything else is a DecodeError and must never reach a client as data.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"homestead/internal/record/model"
)

const AnonymousAuthor = "Anonymous"

// Document is the decoded embedded payload of a record.
type Document map[string]any

// Record is the normalized output shape.
type Record map[string]any

type Encoding int

const (
	Structured Encoding = iota + 1
	Serialized
)

func (e Encoding) String() string {
	switch e {
	case Structured:
		return "structured"
	case Serialized:
		return "serialized"
	default:
		return "unknown"
	}
}

type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "decode document: " + e.Reason
	}
	return fmt.Sprintf("decode document: %s: %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses raw into a Document and reports which encoding it found.
func Decode(raw []byte) (Document, Encoding, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, 0, &DecodeError{Reason: "empty document"}
	}

	switch trimmed[0] {
	case '{':
		doc, err := decodeObject(trimmed)
		if err != nil {
			return nil, 0, err
		}
		return doc, Structured, nil
	case '"':
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, 0, &DecodeError{Reason: "invalid serialized document", Err: err}
		}
		body := bytes.TrimSpace([]byte(inner))
		if len(body) == 0 || body[0] != '{' {
			return nil, 0, &DecodeError{Reason: "serialized document is not an object"}
		}
		doc, err := decodeObject(body)
		if err != nil {
			return nil, 0, err
		}
		return doc, Serialized, nil
	default:
		return nil, 0, &DecodeError{Reason: "document is not an object"}
	}
}

func decodeObject(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	// Keep numbers as written so pass-through fields are not rounded.
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &DecodeError{Reason: "invalid json", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Reason: "trailing data after document"}
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Merge decodes row's document and applies the normalization rules.
func Merge(row model.StoredRecord, viewer string) (Record, error) {
	doc, _, err := Decode(row.Document)
	if err != nil {
		return nil, err
	}
	return Apply(doc, row, viewer), nil
}

// Apply merges an already decoded document with the row's columns.
// Document fields win over column-derived defaults, except isPublic, where
// the column always wins.
func Apply(doc Document, row model.StoredRecord, viewer string) Record {
	out := make(Record, len(doc)+6)
	for k, v := range doc {
		out[k] = v
	}

	out["author"] = Author(doc, viewer)
	out["personalNotes"] = stringOr(doc, "personalNotes", "")
	out["isFavorite"] = boolOr(doc, "isFavorite", false)
	if v, ok := present(doc, "dateAdded"); ok {
		out["dateAdded"] = v
	} else {
		out["dateAdded"] = row.CreatedAt.UTC().Format(time.RFC3339)
	}
	if _, ok := nonEmptyString(doc, "slug"); !ok {
		out["slug"] = row.Slug
	}
	out["isPublic"] = row.IsPublic

	return out
}

// Author resolves the author field: by, then author, then the viewer, then
// AnonymousAuthor.
func Author(doc Document, viewer string) string {
	if by, ok := nonEmptyString(doc, "by"); ok {
		return by
	}
	if author, ok := nonEmptyString(doc, "author"); ok {
		return author
	}
	if viewer != "" {
		return viewer
	}
	return AnonymousAuthor
}

// IsFavorite reports the normalized favorite flag of r.
func (r Record) IsFavorite() bool {
	b, _ := r["isFavorite"].(bool)
	return b
}

func nonEmptyString(doc Document, key string) (string, bool) {
	s, ok := doc[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func stringOr(doc Document, key, fallback string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return fallback
}

func boolOr(doc Document, key string, fallback bool) bool {
	if b, ok := doc[key].(bool); ok {
		return b
	}
	return fallback
}

func present(doc Document, key string) (any, bool) {
	v, ok := doc[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && s == "" {
		return nil, false
	}
	return v, true
}
