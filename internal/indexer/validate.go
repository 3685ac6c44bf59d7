package indexer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// ErrBuildIntegrity marks an artifact that is malformed and must not be
// persisted.
var ErrBuildIntegrity = errors.New("search index failed integrity check")

// IntegrityError names the offending artifact key and what is wrong with it.
type IntegrityError struct {
	Key    string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("search index integrity: %s: %s", e.Key, e.Reason)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrBuildIntegrity }

// Validate checks that every per-kind list is present and that its records
// are well formed: non-empty id and title, a type matching the list, a url
// derived from type and id, unique ids within a list, and a bounded excerpt.
func Validate(idx domain.SearchIndex) error {
	for _, k := range domain.Kinds {
		key := k.ArtifactKey()
		list := idx.ForKind(k)
		if list == nil {
			return &IntegrityError{Key: key, Reason: "missing list"}
		}
		seen := make(map[string]struct{}, len(list))
		for i, rec := range list {
			switch {
			case rec.ID == "":
				return &IntegrityError{Key: key, Reason: fmt.Sprintf("record %d has empty id", i)}
			case rec.Title == "":
				return &IntegrityError{Key: key, Reason: fmt.Sprintf("record %q has empty title", rec.ID)}
			case rec.Type != k:
				return &IntegrityError{Key: key, Reason: fmt.Sprintf("record %q has type %q", rec.ID, rec.Type)}
			case rec.URL != k.URL(rec.ID):
				return &IntegrityError{Key: key, Reason: fmt.Sprintf("record %q has url %q", rec.ID, rec.URL)}
			case len([]rune(rec.Content)) > domain.MaxIndexedContentRunes:
				return &IntegrityError{Key: key, Reason: fmt.Sprintf("record %q content exceeds %d runes", rec.ID, domain.MaxIndexedContentRunes)}
			}
			if _, dup := seen[rec.ID]; dup {
				return &IntegrityError{Key: key, Reason: fmt.Sprintf("duplicate id %q", rec.ID)}
			}
			seen[rec.ID] = struct{}{}
		}
	}
	return nil
}

// ValidateJSON checks a serialized artifact: a JSON object where each of the
// three list keys is present and holds an array. Record contents are then
// checked with Validate.
func ValidateJSON(raw []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return &IntegrityError{Key: "$", Reason: "not a JSON object: " + err.Error()}
	}
	for _, key := range domain.ArtifactKeys {
		v, ok := top[key]
		if !ok {
			return &IntegrityError{Key: key, Reason: "missing list"}
		}
		if t := bytes.TrimSpace(v); len(t) == 0 || t[0] != '[' {
			return &IntegrityError{Key: key, Reason: "not an array"}
		}
	}
	var idx domain.SearchIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return &IntegrityError{Key: "$", Reason: err.Error()}
	}
	return Validate(idx)
}
