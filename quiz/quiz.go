// Package quiz runs the grammar quiz: a linear walk over fetched questions
// with free-text answers submitted in one request at the end.
package quiz

import (
	"fmt"
	"math"
	"strings"

	"orator/api"
)

const NoAnswer = "(no answer)"

// Navigator tracks the current question and the answers typed so far.
type Navigator struct {
	questions []api.Question
	answers   map[int]string
	index     int
}

func NewNavigator(questions []api.Question) *Navigator {
	return &Navigator{questions: questions, answers: make(map[int]string)}
}

func (n *Navigator) Len() int   { return len(n.questions) }
func (n *Navigator) Index() int { return n.index }

func (n *Navigator) Current() api.Question {
	if len(n.questions) == 0 {
		return api.Question{}
	}
	return n.questions[n.index]
}

// Progress is the 1-based position, e.g. "3/10".
func (n *Navigator) Progress() string {
	return fmt.Sprintf("%d/%d", n.index+1, len(n.questions))
}

// SetAnswer stores the trimmed answer for the current question.
func (n *Navigator) SetAnswer(s string) {
	n.answers[n.index] = strings.TrimSpace(s)
}

func (n *Navigator) Answer() string { return n.answers[n.index] }

func (n *Navigator) IsFirst() bool { return n.index == 0 }
func (n *Navigator) IsLast() bool  { return n.index >= len(n.questions)-1 }

// NextLabel is the caption of the forward button.
func (n *Navigator) NextLabel() string {
	if n.IsLast() {
		return "Submit Quiz"
	}
	return "Next Quiz"
}

// Next moves forward and reports false on the last question, where the
// caller should submit instead.
func (n *Navigator) Next() bool {
	if n.IsLast() {
		return false
	}
	n.index++
	return true
}

func (n *Navigator) Prev() bool {
	if n.index == 0 {
		return false
	}
	n.index--
	return true
}

// Answers returns one entry per question in order; unanswered questions
// are empty strings.
func (n *Navigator) Answers() []string {
	out := make([]string, len(n.questions))
	for i := range out {
		out[i] = n.answers[i]
	}
	return out
}

func (n *Navigator) Answered() int {
	c := 0
	for _, a := range n.answers {
		if a != "" {
			c++
		}
	}
	return c
}

// Review is the graded quiz as shown to the user.
type Review struct {
	Percentage int
	Correct    int
	Total      int
	Items      []Item
}

type Item struct {
	Number        int
	Sentence      string
	Answer        string
	Correct       bool
	CorrectAnswer string
}

// Summarize derives the displayed score: percentage when the server sent
// one, else correct/total rounded. Correct falls back from correct_count to
// score; total falls back to the number of questions asked.
func Summarize(r *api.QuizResult, questions int) Review {
	var rv Review
	switch {
	case r.CorrectCount != nil:
		rv.Correct = *r.CorrectCount
	case r.Score != nil:
		rv.Correct = int(math.Round(*r.Score))
	}
	rv.Total = questions
	if r.Total != nil {
		rv.Total = *r.Total
	}
	switch {
	case r.Percentage != nil:
		rv.Percentage = int(math.Round(*r.Percentage))
	case rv.Total > 0:
		rv.Percentage = int(math.Round(float64(rv.Correct) / float64(rv.Total) * 100))
	}

	for i, it := range r.Review {
		item := Item{
			Number:   it.QuestionNumber,
			Sentence: it.Sentence,
			Answer:   it.UserAnswer,
			Correct:  it.Correct,
		}
		if item.Number == 0 {
			item.Number = i + 1
		}
		if strings.TrimSpace(item.Answer) == "" {
			item.Answer = NoAnswer
		}
		if !it.Correct {
			item.CorrectAnswer = it.CorrectAnswer
		}
		rv.Items = append(rv.Items, item)
	}
	return rv
}
