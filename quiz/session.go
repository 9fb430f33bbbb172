package quiz

import (
	"context"
	"errors"
	"fmt"

	"orator/api"
	"orator/log"
)

const (
	MsgInvalidQuiz = "Failed to load quiz: Invalid data format"
	RouteReport    = "/report"
)

var ErrSubmitting = errors.New("quiz submission already in progress")

type Client interface {
	FetchQuiz(ctx context.Context) (*api.Quiz, error)
	SubmitQuiz(ctx context.Context, answers []string) (*api.QuizResult, error)
}

// Session is one attempt at the quiz.
type Session struct {
	client     Client
	id         string
	nav        *Navigator
	submitting bool
	review     *Review
}

// Start fetches a fresh quiz.
func Start(ctx context.Context, client Client) (*Session, error) {
	q, err := client.FetchQuiz(ctx)
	if err != nil {
		return nil, err
	}
	log.PromptLoaded("D", 0, 1, len(q.Questions))
	log.Infof("quiz %s loaded with %d questions", q.ID, len(q.Questions))
	return &Session{client: client, id: q.ID, nav: NewNavigator(q.Questions)}, nil
}

func (s *Session) Navigator() *Navigator { return s.nav }
func (s *Session) ID() string            { return s.id }

// Review is nil until the quiz has been graded.
func (s *Session) Review() *Review { return s.review }

// Advance stores the answer and moves on. On the last question it submits
// and returns the graded review.
func (s *Session) Advance(ctx context.Context, answer string) (*Review, error) {
	s.nav.SetAnswer(answer)
	if s.nav.Next() {
		return nil, nil
	}
	return s.Submit(ctx)
}

// Submit sends every answer in question order.
func (s *Session) Submit(ctx context.Context) (*Review, error) {
	if s.submitting {
		return nil, ErrSubmitting
	}
	s.submitting = true
	defer func() { s.submitting = false }()

	res, err := s.client.SubmitQuiz(ctx, s.nav.Answers())
	if err != nil {
		return nil, err
	}
	rv := Summarize(res, s.nav.Len())
	s.review = &rv
	log.Result("D", 0, rv.Percentage, fmt.Sprintf("%d/%d correct", rv.Correct, rv.Total))
	return &rv, nil
}

// LoadMessage is the text shown when a quiz cannot be fetched. It is empty
// for errors the caller handles by navigation or cancellation.
func LoadMessage(err error) string {
	switch {
	case err == nil, errors.Is(err, api.ErrAuthRequired), errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, api.ErrInvalidQuiz):
		return MsgInvalidQuiz
	}
	if _, ok := api.IsRejected(err); ok {
		return MsgInvalidQuiz
	}
	return "Network error: " + cause(err).Error()
}

// SubmitMessage is the text shown when grading fails.
func SubmitMessage(err error) string {
	switch {
	case err == nil, errors.Is(err, api.ErrAuthRequired), errors.Is(err, context.Canceled):
		return ""
	}
	if re, ok := api.IsRejected(err); ok {
		return "Failed to submit quiz: " + re.Reason()
	}
	return "Failed to submit quiz: " + cause(err).Error()
}

func cause(err error) error {
	var ne *api.NetworkError
	if errors.As(err, &ne) && ne.Err != nil {
		return ne.Err
	}
	return err
}
