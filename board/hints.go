package board

import "strings"

type Hint string

const (
	HintBirthday       Hint = "birthday"
	HintAllergy        Hint = "allergy"
	HintDecoration     Hint = "decoration"
	HintPreorderedMenu Hint = "preordered_menu"
	HintNote           Hint = "note"
)

// Classifier tags free-text notes with hints. Implementations are heuristics:
// a hint is a prompt for staff to read the note, never authoritative.
type Classifier interface {
	Classify(notes string) []Hint
}

// KeywordRule maps case-insensitive substrings to one hint.
type KeywordRule struct {
	Hint     Hint
	Keywords []string
}

// KeywordClassifier emits every hint whose keyword occurs in the notes, in
// rule order, and HintNote when non-empty notes match nothing.
type KeywordClassifier struct {
	Rules []KeywordRule
}

// GermanKeywords is the vocabulary the floor staff write notes in.
var GermanKeywords = []KeywordRule{
	{Hint: HintBirthday, Keywords: []string{"geburtstag", "birthday", "bday", "jubiläum"}},
	{Hint: HintAllergy, Keywords: []string{"allergi", "unverträglich", "intoleranz", "laktose", "gluten", "nuss", "nüsse", "zöliakie"}},
	{Hint: HintDecoration, Keywords: []string{"deko", "blumen", "ballon", "kerze", "überraschung"}},
	{Hint: HintPreorderedMenu, Keywords: []string{"vorbestellt", "vorbestellung", "menü bestellt", "menu bestellt", "festmenü"}},
}

func NewKeywordClassifier(rules []KeywordRule) *KeywordClassifier {
	return &KeywordClassifier{Rules: rules}
}

// DefaultClassifier uses GermanKeywords.
func DefaultClassifier() Classifier {
	return NewKeywordClassifier(GermanKeywords)
}

func (c *KeywordClassifier) Classify(notes string) []Hint {
	text := strings.ToLower(strings.TrimSpace(notes))
	if text == "" {
		return nil
	}

	var hints []Hint
	for _, rule := range c.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				hints = append(hints, rule.Hint)
				break
			}
		}
	}
	if len(hints) == 0 {
		return []Hint{HintNote}
	}
	return hints
}
