package question

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/samber/lo"
)

// Catalog is the immutable in-memory question set loaded at startup.
type Catalog struct {
	questions []*Question
	byID      map[string]*Question
}

// questionRecord mirrors one entry of the catalog JSON file.
type questionRecord struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	Topic          string   `json:"topic"`
	Page           string   `json:"page"`
	Type           string   `json:"type"`
	Difficulty     int      `json:"difficulty"`
	Choices        []string `json:"choices"`
	CorrectIndices []int    `json:"correct_indices"`
	Answer         string   `json:"answer"`
	AnswerKeywords []string `json:"answer_keywords"`
	AnswerExample  string   `json:"answer_example"`
	Explanation    string   `json:"explanation"`
	Hint           string   `json:"hint"`
	Reference      string   `json:"reference"`
}

// LoadCatalog reads the question catalog from a JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var records []questionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	questions := make([]*Question, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		questions = append(questions, r.toQuestion())
	}
	return NewCatalog(questions)
}

// NewCatalog builds a catalog from already-parsed questions.
// Duplicate ids are rejected.
func NewCatalog(questions []*Question) (*Catalog, error) {
	byID := make(map[string]*Question, len(questions))
	for _, q := range questions {
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		byID[q.ID] = q
	}
	return &Catalog{questions: questions, byID: byID}, nil
}

// toQuestion decides the answer model once, at load time.
func (r questionRecord) toQuestion() *Question {
	q := &Question{
		ID:             r.ID,
		Topic:          r.Topic,
		Page:           r.Page,
		Difficulty:     r.Difficulty,
		Body:           r.Question,
		Choices:        r.Choices,
		CorrectIndices: r.CorrectIndices,
		Keywords:       r.AnswerKeywords,
		Answer:         r.Answer,
		Hint:           r.Hint,
		Explanation:    r.Explanation,
		AnswerExample:  r.AnswerExample,
		Reference:      r.Reference,
	}
	if q.Topic == "" {
		q.Topic = DefaultTopic
	}

	switch {
	case r.Type == "mcq" && len(r.Choices) > 0:
		q.Kind = KindMultipleChoice
	case len(r.AnswerKeywords) > 0:
		q.Kind = KindKeywords
	case r.Answer != "":
		q.Kind = KindFreeText
	default:
		q.Kind = KindUnknown
	}
	return q
}

// Len returns the number of questions in the catalog.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// ByID looks up a question; ok is false when the id is unknown.
func (c *Catalog) ByID(id string) (*Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// All returns every question. Callers must not mutate the result.
func (c *Catalog) All() []*Question {
	return c.questions
}

// ByTopic returns the questions belonging to a topic.
func (c *Catalog) ByTopic(topic string) []*Question {
	return lo.Filter(c.questions, func(q *Question, _ int) bool {
		return q.Topic == topic
	})
}

// Topics returns the sorted set of topics present in the catalog.
func (c *Catalog) Topics() []string {
	topics := lo.Uniq(lo.Map(c.questions, func(q *Question, _ int) string {
		return q.Topic
	}))
	sort.Strings(topics)
	return topics
}
