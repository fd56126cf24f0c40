package textstats

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// words keeps tokens made only of letters and returns their rune lengths.
func words(tokens []Token) []int {
	out := make([]int, 0, len(tokens))
	for _, t := range tokens {
		if isAlpha(t.Text) {
			out = append(out, utf8.RuneCountInString(t.Text))
		}
	}
	return out
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

var beForms = map[string]bool{
	"be": true, "am": true, "is": true, "are": true, "was": true, "were": true,
	"been": true, "being": true, "'s": true, "'re": true, "'m": true,
}

var haveDoForms = map[string]bool{
	"have": true, "has": true, "had": true, "having": true, "'ve": true, "'d": true,
	"do": true, "does": true, "did": true,
}

func isVerbTag(tag string) bool { return strings.HasPrefix(tag, "VB") }

// isAuxiliary reports whether the verb at i only supports another verb.
// Forms of "be" always count; "have" and "do" count when a verb follows,
// allowing negations and adverbs in between.
func isAuxiliary(tokens []Token, i int) bool {
	w := strings.ToLower(tokens[i].Text)
	if beForms[w] {
		return true
	}
	if !haveDoForms[w] {
		return false
	}
	for j := i + 1; j < len(tokens) && j <= i+3; j++ {
		next := tokens[j]
		switch {
		case isVerbTag(next.Tag):
			return true
		case strings.HasPrefix(next.Tag, "RB"), next.Tag == "PRP":
			continue
		default:
			return false
		}
	}
	return false
}

// tallyPOS adds part-of-speech counts for one text. Closed-class categories
// are only counted when extended is set.
func tallyPOS(f *Features, tokens []Token, extended bool) {
	for i, t := range tokens {
		switch t.Tag {
		case "VB", "VBD", "VBG", "VBN", "VBP", "VBZ":
			if isAuxiliary(tokens, i) {
				continue
			}
			if t.Tag == "VBD" || t.Tag == "VBN" {
				f.PastVerbs++
			} else {
				f.PresentVerbs++
			}
		case "JJ", "JJR", "JJS":
			f.Adjectives++
		case "RB", "RBR", "RBS", "WRB":
			f.Adverbs++
		}
		if !extended {
			continue
		}
		switch t.Tag {
		case "IN":
			f.Adpositions++
		case "PRP", "PRP$", "WP", "WP$":
			f.Pronouns++
		case "CC":
			f.Conjunctions++
		case "DT", "PDT", "WDT":
			f.Determiners++
		case "TO":
			f.TOs++
		}
	}
}

// tallyChars counts the character classes tracked beyond dots and exclamations.
func tallyChars(f *Features, text string) {
	for _, r := range text {
		switch {
		case r == '?':
			f.Questions++
		case r == '&':
			f.Ampersand++
		case unicode.IsUpper(r):
			f.Capitals++
		case unicode.IsDigit(r):
			f.Digits++
		}
	}
}
