package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orator/api"
)

func questions(n int) []api.Question {
	qs := make([]api.Question, n)
	for i := range qs {
		qs[i] = api.Question{Number: i + 1, Sentence: "She ___ happy."}
	}
	return qs
}

func ptr[T any](v T) *T { return &v }

func TestNavigator(t *testing.T) {
	n := NewNavigator(questions(3))
	assert.Equal(t, "1/3", n.Progress())
	assert.True(t, n.IsFirst())
	assert.False(t, n.Prev())
	assert.Equal(t, "Next Quiz", n.NextLabel())

	n.SetAnswer("  is ")
	require.True(t, n.Next())
	require.True(t, n.Next())
	assert.Equal(t, "3/3", n.Progress())
	assert.True(t, n.IsLast())
	assert.Equal(t, "Submit Quiz", n.NextLabel())
	assert.False(t, n.Next())

	n.SetAnswer("were")
	require.True(t, n.Prev())
	assert.Equal(t, "", n.Answer())
	assert.Equal(t, []string{"is", "", "were"}, n.Answers())
	assert.Equal(t, 2, n.Answered())
}

func TestSummarizeComputesPercentage(t *testing.T) {
	res := &api.QuizResult{
		Score: ptr(1.0),
		Total: ptr(2),
		Review: []api.ReviewItem{
			{QuestionNumber: 1, Sentence: "She ___ happy.", UserAnswer: "is", Correct: true},
			{QuestionNumber: 2, Sentence: "They ___ here.", UserAnswer: "", Correct: false, CorrectAnswer: "are"},
		},
	}
	rv := Summarize(res, 2)
	assert.Equal(t, 50, rv.Percentage)
	assert.Equal(t, 1, rv.Correct)
	assert.Equal(t, 2, rv.Total)
	require.Len(t, rv.Items, 2)
	assert.Equal(t, "is", rv.Items[0].Answer)
	assert.Empty(t, rv.Items[0].CorrectAnswer)
	assert.Equal(t, NoAnswer, rv.Items[1].Answer)
	assert.Equal(t, "are", rv.Items[1].CorrectAnswer)
}

func TestSummarizeRounding(t *testing.T) {
	rv := Summarize(&api.QuizResult{CorrectCount: ptr(2)}, 3)
	assert.Equal(t, 67, rv.Percentage)
	assert.Equal(t, 3, rv.Total)

	rv = Summarize(&api.QuizResult{CorrectCount: ptr(1), Total: ptr(3), Percentage: ptr(90.0)}, 3)
	assert.Equal(t, 90, rv.Percentage)

	rv = Summarize(&api.QuizResult{}, 0)
	assert.Equal(t, 0, rv.Percentage)
}

type fakeClient struct {
	quiz      *api.Quiz
	fetchErr  error
	submitErr error
	result    *api.QuizResult
	answers   [][]string
}

func (c *fakeClient) FetchQuiz(context.Context) (*api.Quiz, error) {
	return c.quiz, c.fetchErr
}

func (c *fakeClient) SubmitQuiz(_ context.Context, answers []string) (*api.QuizResult, error) {
	c.answers = append(c.answers, answers)
	return c.result, c.submitErr
}

func TestSessionSubmitsOnLastQuestion(t *testing.T) {
	c := &fakeClient{
		quiz: &api.Quiz{ID: "q1", Questions: questions(2)},
		result: &api.QuizResult{CorrectCount: ptr(2), Total: ptr(2), Review: []api.ReviewItem{
			{QuestionNumber: 1, UserAnswer: "is", Correct: true},
			{QuestionNumber: 2, UserAnswer: "are", Correct: true},
		}},
	}
	s, err := Start(context.Background(), c)
	require.NoError(t, err)

	rv, err := s.Advance(context.Background(), "is")
	require.NoError(t, err)
	assert.Nil(t, rv)
	assert.Empty(t, c.answers)

	rv, err = s.Advance(context.Background(), "are ")
	require.NoError(t, err)
	require.NotNil(t, rv)
	assert.Equal(t, [][]string{{"is", "are"}}, c.answers)
	assert.Equal(t, 100, rv.Percentage)
	assert.Same(t, rv, s.Review())
}

func TestMessages(t *testing.T) {
	assert.Equal(t, MsgInvalidQuiz, LoadMessage(api.ErrInvalidQuiz))
	assert.Equal(t, "", LoadMessage(api.ErrAuthRequired))
	assert.Equal(t, "Network error: connection refused",
		LoadMessage(&api.NetworkError{Op: "fetch quiz", Err: errors.New("connection refused")}))

	assert.Equal(t, "Failed to submit quiz: No active quiz found.",
		SubmitMessage(&api.RejectedError{Op: "submit quiz", Message: "No active quiz found."}))
	assert.Equal(t, "Failed to submit quiz: Unknown error", SubmitMessage(&api.RejectedError{}))
	assert.Equal(t, "", SubmitMessage(api.ErrAuthRequired))
}
