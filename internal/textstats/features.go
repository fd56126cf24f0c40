package textstats

// EntityCategories lists the named-entity categories in schema order.
var EntityCategories = [...]string{
	"ORG", "NORP", "GPE", "PERSON", "MONEY", "DATE", "CARDINAL",
	"PERCENT", "ORDINAL", "FAC", "LAW", "PRODUCT", "EVENT",
	"TIME", "LOC", "WORK_OF_ART", "QUANTITY", "LANGUAGE",
}

// NumFields is the length of the text feature block.
const NumFields = 21 + len(EntityCategories)

// Features is the text block of the classifier input. Field order is
// positional and must not change without retraining.
type Features struct {
	TotalWords float64
	MaxWordLen float64
	MinWordLen float64
	AvgWordLen float64

	PresentVerbs float64
	Adjectives   float64
	Adverbs      float64
	Adpositions  float64
	Pronouns     float64
	Conjunctions float64
	Determiners  float64
	PastVerbs    float64
	TOs          float64

	Dots        float64
	Exclamation float64
	Questions   float64
	Ampersand   float64
	Capitals    float64
	Digits      float64

	LongWordFreq  float64
	ShortWordFreq float64

	// Entities holds percentages indexed like EntityCategories.
	Entities [len(EntityCategories)]float64
}

// FieldNames returns the column names of the text block in vector order.
func FieldNames() []string {
	names := []string{
		"Word count", "Max word length", "Min word length", "Average word length",
		"present_verbs", "adjectives", "adverbs", "adpositions", "pronouns",
		"conjunctions", "determiners", "past_verbs", "TOs",
		"dots", "exclamation", "questions", "ampersand", "capitals", "digits",
		"long_word_freq", "short_word_freq",
	}
	for _, c := range EntityCategories {
		names = append(names, c+"_percentage")
	}
	return names
}

// Values flattens f in the order of FieldNames.
func (f Features) Values() []float64 {
	out := make([]float64, 0, NumFields)
	out = append(out,
		f.TotalWords, f.MaxWordLen, f.MinWordLen, f.AvgWordLen,
		f.PresentVerbs, f.Adjectives, f.Adverbs, f.Adpositions, f.Pronouns,
		f.Conjunctions, f.Determiners, f.PastVerbs, f.TOs,
		f.Dots, f.Exclamation, f.Questions, f.Ampersand, f.Capitals, f.Digits,
		f.LongWordFreq, f.ShortWordFreq,
	)
	out = append(out, f.Entities[:]...)
	return out
}
