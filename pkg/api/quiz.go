package api

import (
	"context"
	"net/http"
	"strconv"
)

// GetQuiz returns a quiz with its questions and options.
func (client *Client) GetQuiz(ctx context.Context, quizID int64) (Quiz, error) {
	var quiz Quiz
	path := "/api/quizzes/" + strconv.FormatInt(quizID, 10) + "/"
	if err := client.do(ctx, http.MethodGet, path, nil, &quiz); err != nil {
		return Quiz{}, err
	}
	return quiz, nil
}

type submitQuizRequest struct {
	Answers []SelectedAnswer `json:"answers"`
}

// SubmitQuiz grades the selected answers of a quiz.
func (client *Client) SubmitQuiz(ctx context.Context, quizID int64, answers []SelectedAnswer) (QuizResult, error) {
	var result QuizResult
	path := "/api/quizzes/" + strconv.FormatInt(quizID, 10) + "/submit/"
	err := client.do(ctx, http.MethodPost, path, submitQuizRequest{Answers: answers}, &result)
	if err != nil {
		return QuizResult{}, err
	}
	return result, nil
}
