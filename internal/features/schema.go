// Package features defines the classifier's input schema and assembles
// feature vectors that conform to it.
package features

import (
	"fmt"

	"botcheck/internal/model"
	"botcheck/internal/textstats"
)

// AccountFields are the leading columns built from account counts and
// derived metrics.
var AccountFields = []string{
	"followers_count", "friends_count", "favourites_count", "statuses_count",
	"listed_count", "BotScore", "cred", "normalize_influence",
	"replies", "retweets",
}

// Schema is an ordered list of feature names shared by the assembler and the
// classifier contract.
type Schema struct {
	name   string
	fields []string
	index  map[string]int
}

// NewSchema builds a schema from ordered, unique field names.
func NewSchema(name string, fields []string) (*Schema, error) {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := idx[f]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", name, f)
		}
		idx[f] = i
	}
	return &Schema{name: name, fields: append([]string(nil), fields...), index: idx}, nil
}

func mustSchema(name string, fields []string) *Schema {
	s, err := NewSchema(name, fields)
	if err != nil {
		panic(err)
	}
	return s
}

// Default is the 49-column layout of the deployed bot classifier.
var Default = mustSchema("bot-rf-v1", append(append([]string(nil), AccountFields...), textstats.FieldNames()...))

func (s *Schema) Name() string { return s.name }

func (s *Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the ordered field names.
func (s *Schema) Fields() []string { return append([]string(nil), s.fields...) }

// Index returns the position of a field, or -1.
func (s *Schema) Index(field string) int {
	if i, ok := s.index[field]; ok {
		return i
	}
	return -1
}

// Validate checks an externally declared column list against s, position
// by position.
func (s *Schema) Validate(names []string) error {
	if len(names) != len(s.fields) {
		return &model.SchemaDriftError{Want: len(s.fields), Got: len(names)}
	}
	for i, n := range names {
		if n != s.fields[i] {
			return &model.SchemaDriftError{Want: len(s.fields), Got: len(names), Field: n}
		}
	}
	return nil
}
