package question

import "strings"

// DefaultTopic is assigned to questions that carry no topic of their own
// and is the fallback scope when a selected topic has no questions.
const DefaultTopic = "عام"

// AnswerKind tags the answer model of a question. The kind is decided once
// when the catalog is loaded, so evaluation never inspects which fields
// happen to be present.
type AnswerKind int

const (
	// KindUnknown marks a question with no recognized answer model.
	// Such questions evaluate to incorrect with accuracy 0.
	KindUnknown AnswerKind = iota
	// KindMultipleChoice: an ordered choice list with a set of correct indices.
	KindMultipleChoice
	// KindKeywords: a list of required keywords matched as substrings.
	KindKeywords
	// KindFreeText: one canonical reference answer compared by similarity.
	KindFreeText
)

func (k AnswerKind) String() string {
	switch k {
	case KindMultipleChoice:
		return "mcq"
	case KindKeywords:
		return "keywords"
	case KindFreeText:
		return "text"
	default:
		return "unknown"
	}
}

// Question is a single catalog entry. Immutable after load.
type Question struct {
	ID         string
	Topic      string
	Page       string
	Difficulty int
	Body       string

	Kind           AnswerKind
	Choices        []string // KindMultipleChoice
	CorrectIndices []int    // KindMultipleChoice
	Keywords       []string // KindKeywords
	Answer         string   // KindFreeText reference answer

	Hint          string
	Explanation   string
	AnswerExample string
	Reference     string
}

// IsCorrectChoice reports whether the given choice index is one of the
// correct indices.
func (q *Question) IsCorrectChoice(index int) bool {
	for _, i := range q.CorrectIndices {
		if i == index {
			return true
		}
	}
	return false
}

// CorrectChoices returns the texts of the correct choice entries,
// skipping indices that fall outside the choice list.
func (q *Question) CorrectChoices() []string {
	var out []string
	for _, i := range q.CorrectIndices {
		if i >= 0 && i < len(q.Choices) {
			out = append(out, q.Choices[i])
		}
	}
	return out
}

// ModelAnswer returns the best user-facing reference answer available.
// For choice questions that is the correct choice text.
func (q *Question) ModelAnswer() string {
	if q.Kind == KindMultipleChoice {
		return strings.Join(q.CorrectChoices(), "، ")
	}
	if q.AnswerExample != "" {
		return q.AnswerExample
	}
	return q.Answer
}
