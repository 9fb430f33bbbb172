package api

import (
	"context"
	"errors"
	"net/http"
)

const (
	quizPath       = "/api/moduleD/quiz"
	quizSubmitPath = "/api/moduleD/submit"
)

// ErrInvalidQuiz is returned when the quiz payload has no questions.
var ErrInvalidQuiz = errors.New("invalid quiz data")

type Question struct {
	ID       int    `json:"id"`
	Number   int    `json:"number"`
	Sentence string `json:"sentence"`
	Category string `json:"category"`
}

type Quiz struct {
	ID        string
	Questions []Question
}

type quizJSON struct {
	envelope
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
	QuizID         string     `json:"quiz_id"`
}

func (c *Client) FetchQuiz(ctx context.Context) (*Quiz, error) {
	const op = "fetch quiz"
	req, id := c.request(ctx)
	r, err := c.exchange(op, req, id, http.MethodGet, quizPath, false)
	if err != nil {
		return nil, err
	}
	var j quizJSON
	if err := decode(op, r, &j); err != nil {
		return nil, err
	}
	if (j.Success != nil && !*j.Success) || len(j.Questions) == 0 {
		return nil, ErrInvalidQuiz
	}
	return &Quiz{ID: j.QuizID, Questions: j.Questions}, nil
}

type ReviewItem struct {
	QuestionNumber int    `json:"question_number"`
	Sentence       string `json:"sentence"`
	UserAnswer     string `json:"user_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	Correct        bool   `json:"correct"`
}

// QuizResult mirrors the grading response; pointer fields are nil when absent.
type QuizResult struct {
	Score        *float64
	CorrectCount *int
	Total        *int
	Percentage   *float64
	Review       []ReviewItem
}

type quizResultJSON struct {
	envelope
	Score        *float64     `json:"score"`
	CorrectCount *int         `json:"correct_count"`
	Total        *int         `json:"total"`
	Percentage   *float64     `json:"percentage"`
	Review       []ReviewItem `json:"review"`
}

// SubmitQuiz posts answers in question order; unanswered entries are empty strings.
func (c *Client) SubmitQuiz(ctx context.Context, answers []string) (*QuizResult, error) {
	const op = "submit quiz"
	if answers == nil {
		answers = []string{}
	}
	req, id := c.request(ctx)
	req.SetBody(map[string][]string{"answers": answers})
	r, err := c.exchange(op, req, id, http.MethodPost, quizSubmitPath, false)
	if err != nil {
		return nil, err
	}
	var j quizResultJSON
	if err := decode(op, r, &j); err != nil {
		return nil, err
	}
	if err := rejectFalse(op, r, j.envelope); err != nil {
		return nil, err
	}
	return &QuizResult{
		Score:        j.Score,
		CorrectCount: j.CorrectCount,
		Total:        j.Total,
		Percentage:   j.Percentage,
		Review:       j.Review,
	}, nil
}
