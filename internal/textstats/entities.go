package textstats

import (
	"regexp"
	"strings"
)

type entityPattern struct {
	label string
	re    *regexp.Regexp
}

// Pattern recognizers cover the numeric and temporal categories the
// statistical extractor does not. Order matters: earlier matches are masked
// so "$5" is MONEY and not also CARDINAL.
var entityPatterns = []entityPattern{
	{"MONEY", regexp.MustCompile(`(?i)[$€£¥]\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:k|m|bn|million|billion)\b)?|\b\d[\d,]*(?:\.\d+)?\s?(?:dollars|usd|euros?|eur|pounds|gbp)\b`)},
	{"PERCENT", regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?(?:\s?%|\s?percent\b)`)},
	{"TIME", regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}(?::\d{2})?(?:\s?[ap]m\b)?|\b\d{1,2}\s?[ap]m\b`)},
	{"DATE", regexp.MustCompile(`(?i)\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b|\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|yesterday|tomorrow)\b`)},
	{"ORDINAL", regexp.MustCompile(`(?i)\b\d+(?:st|nd|rd|th)\b|\b(?:first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)\b`)},
	{"CARDINAL", regexp.MustCompile(`\b\d[\d,]*(?:\.\d+)?\b|(?i:\b(?:two|three|four|five|six|seven|eight|nine|ten|dozen|hundred|thousand|million|billion)\b)`)},
	{"LANGUAGE", regexp.MustCompile(`\b(?:English|Spanish|French|German|Italian|Portuguese|Russian|Chinese|Mandarin|Japanese|Korean|Arabic|Hindi|Dutch|Swedish|Turkish|Polish|Greek|Hebrew|Latin)\b`)},
}

var categoryIndex = func() map[string]int {
	m := make(map[string]int, len(EntityCategories))
	for i, c := range EntityCategories {
		m[c] = i
	}
	return m
}()

// countEntities adds per-category entity counts for one text into counts.
// Extractor entities are masked out before the patterns run.
func countEntities(counts *[len(EntityCategories)]int, text string, extracted []Entity) {
	work := text
	for _, e := range extracted {
		idx, ok := categoryIndex[strings.ToUpper(e.Label)]
		if !ok {
			continue
		}
		counts[idx]++
		if e.Text != "" {
			if at := strings.Index(work, e.Text); at >= 0 {
				work = blank(work, at, at+len(e.Text))
			}
		}
	}
	for _, p := range entityPatterns {
		locs := p.re.FindAllStringIndex(work, -1)
		if len(locs) == 0 {
			continue
		}
		counts[categoryIndex[p.label]] += len(locs)
		for _, l := range locs {
			work = blank(work, l[0], l[1])
		}
	}
}

func blank(s string, from, to int) string {
	b := []byte(s)
	for i := from; i < to; i++ {
		b[i] = ' '
	}
	return string(b)
}
