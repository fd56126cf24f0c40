// Package textstats derives the lexical, syntactic and entity block of the
// classifier input from an account's recent post texts.
package textstats

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"botcheck/internal/logging"
	"botcheck/internal/model"
)

// Mode selects which feature slots are computed.
type Mode int

const (
	// ModeCompat fills only the slots the deployed classifier was trained
	// with; every other slot stays 0.
	ModeCompat Mode = iota
	// ModeExtended also fills the closed-class POS, character, lexical
	// complexity and entity slots.
	ModeExtended
)

// WordLengthMode selects how max/min word length combine across texts.
type WordLengthMode int

const (
	// WordLengthLast keeps the values of the last text that had words.
	// The deployed classifier was trained on this.
	WordLengthLast WordLengthMode = iota
	// WordLengthRunning keeps the true max/min over all texts.
	WordLengthRunning
)

const (
	longWordRunes  = 7
	shortWordRunes = 3
)

var errInvalidUTF8 = errors.New("invalid utf-8")

type Options struct {
	Mode       Mode
	WordLength WordLengthMode
}

// Result is the analyzer output for one batch of texts.
type Result struct {
	Features  Features
	Analyzed  int
	Skipped   []*model.TextProcessingError
	Languages map[string]int
}

// DominantLanguage returns the most frequent ISO 639-1 code, or "" when
// no text had a detectable language. Ties resolve alphabetically.
func (r Result) DominantLanguage() string {
	codes := make([]string, 0, len(r.Languages))
	for c := range r.Languages {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	best, n := "", 0
	for _, c := range codes {
		if r.Languages[c] > n {
			best, n = c, r.Languages[c]
		}
	}
	return best
}

// Analyzer is safe for concurrent use when its Tagger is.
type Analyzer struct {
	opts   Options
	tagger Tagger
	log    zerolog.Logger
}

// New creates an Analyzer. A nil tagger selects the prose tagger.
func New(opts Options, tagger Tagger, log zerolog.Logger) *Analyzer {
	if tagger == nil {
		tagger = NewProseTagger(opts.Mode == ModeExtended)
	}
	return &Analyzer{opts: opts, tagger: tagger, log: logging.Component(log, "textstats")}
}

func (a *Analyzer) Options() Options { return a.opts }

// Analyze accumulates text features over texts in order. A text that cannot
// be processed is skipped and reported in Result.Skipped.
func (a *Analyzer) Analyze(texts []string) Result {
	extended := a.opts.Mode == ModeExtended
	res := Result{Languages: map[string]int{}}
	f := &res.Features

	var (
		seenWords   bool
		long, short int
		entities    [len(EntityCategories)]int
	)
	for i, raw := range texts {
		if !utf8.ValidString(raw) {
			res.Skipped = append(res.Skipped, a.skip(i, errInvalidUTF8))
			continue
		}
		text := norm.NFC.String(raw)
		tagged, err := a.tagger.Tag(text)
		if err != nil {
			res.Skipped = append(res.Skipped, a.skip(i, err))
			continue
		}
		res.Analyzed++

		lengths := words(tagged.Tokens)
		f.TotalWords += float64(len(lengths))
		if len(lengths) > 0 {
			lo, hi, sum := lengths[0], lengths[0], 0
			for _, n := range lengths {
				lo = min(lo, n)
				hi = max(hi, n)
				sum += n
				if n >= longWordRunes {
					long++
				}
				if n <= shortWordRunes {
					short++
				}
			}
			if a.opts.WordLength == WordLengthRunning && seenWords {
				f.MaxWordLen = math.Max(f.MaxWordLen, float64(hi))
				f.MinWordLen = math.Min(f.MinWordLen, float64(lo))
			} else {
				f.MaxWordLen = float64(hi)
				f.MinWordLen = float64(lo)
			}
			seenWords = true
			f.AvgWordLen += float64(sum) / float64(len(lengths))
		}

		tallyPOS(f, tagged.Tokens, extended)
		f.Dots += float64(strings.Count(text, "."))
		f.Exclamation += float64(strings.Count(text, "!"))
		if extended {
			tallyChars(f, text)
			countEntities(&entities, text, tagged.Entities)
		}

		if strings.TrimSpace(text) != "" {
			if code := whatlanggo.Detect(text).Lang.Iso6391(); code != "" {
				res.Languages[code]++
			}
		}
	}

	if extended {
		if f.TotalWords > 0 {
			f.LongWordFreq = round2(float64(long) / f.TotalWords)
			f.ShortWordFreq = round2(float64(short) / f.TotalWords)
		}
		total := 0
		for _, n := range entities {
			total += n
		}
		if total > 0 {
			for i, n := range entities {
				f.Entities[i] = round2(100 * float64(n) / float64(total))
			}
		}
	}
	return res
}

func (a *Analyzer) skip(i int, err error) *model.TextProcessingError {
	tpe := &model.TextProcessingError{Index: i, Err: err}
	a.log.Warn().Err(err).Int("index", i).Msg("skipping post text")
	return tpe
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
