package textstats

import (
	"fmt"

	prose "github.com/jdkato/prose/v2"
)

// Token is one tagged token. Tag uses Penn Treebank tags (VBD, JJ, ...).
type Token struct {
	Text string
	Tag  string
}

// Entity is a recognized span with its category label.
type Entity struct {
	Text  string
	Label string
}

// Tagged is the tagger output for a single text.
type Tagged struct {
	Tokens   []Token
	Entities []Entity
}

// Tagger tokenizes, POS-tags and optionally extracts entities from text.
type Tagger interface {
	Tag(text string) (Tagged, error)
}

// ProseTagger is the default Tagger, backed by prose's averaged perceptron.
// The model is loaded once and only read while tagging, so one ProseTagger
// may be shared across goroutines.
type ProseTagger struct {
	model   *prose.Model
	extract bool
}

func NewProseTagger(extractEntities bool) *ProseTagger {
	return &ProseTagger{model: prose.ModelFromData("botcheck"), extract: extractEntities}
}

func (p *ProseTagger) Tag(text string) (out Tagged, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tagger panic: %v", r)
		}
	}()
	doc, err := prose.NewDocument(text,
		prose.UsingModel(p.model),
		prose.WithSegmentation(false),
		prose.WithExtraction(p.extract),
	)
	if err != nil {
		return out, err
	}
	toks := doc.Tokens()
	out.Tokens = make([]Token, 0, len(toks))
	for _, t := range toks {
		out.Tokens = append(out.Tokens, Token{Text: t.Text, Tag: t.Tag})
	}
	if p.extract {
		for _, e := range doc.Entities() {
			out.Entities = append(out.Entities, Entity{Text: e.Text, Label: e.Label})
		}
	}
	return out, nil
}
