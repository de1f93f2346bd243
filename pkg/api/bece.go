package api

import (
	"context"
	"net/http"
	"strconv"
)

// ListExamSubjects returns the practice subjects of the national-exam module.
func (client *Client) ListExamSubjects(ctx context.Context) ([]ExamSubject, error) {
	var subjects []ExamSubject
	if err := client.do(ctx, http.MethodGet, "/api/bece/subjects/", nil, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// ListExamYears returns the past-paper years available for a subject.
func (client *Client) ListExamYears(ctx context.Context, subjectID int64) ([]ExamYear, error) {
	var years []ExamYear
	path := "/api/bece/subjects/" + strconv.FormatInt(subjectID, 10) + "/years/"
	if err := client.do(ctx, http.MethodGet, path, nil, &years); err != nil {
		return nil, err
	}
	return years, nil
}

// GetExamPaper returns a full past paper with nested questions and answers.
func (client *Client) GetExamPaper(ctx context.Context, paperID int64) (ExamPaper, error) {
	var paper ExamPaper
	path := "/api/bece/papers/" + strconv.FormatInt(paperID, 10) + "/"
	if err := client.do(ctx, http.MethodGet, path, nil, &paper); err != nil {
		return ExamPaper{}, err
	}
	return paper, nil
}

type startAttemptRequest struct {
	PaperID int64 `json:"paper_id"`
}

// StartAttempt opens a practice attempt against a paper.
func (client *Client) StartAttempt(ctx context.Context, paperID int64) (Attempt, error) {
	var attempt Attempt
	err := client.do(ctx, http.MethodPost, "/api/bece/attempts/start/", startAttemptRequest{PaperID: paperID}, &attempt)
	if err != nil {
		return Attempt{}, err
	}
	return attempt, nil
}

type submitAttemptRequest struct {
	PaperID int64            `json:"paper_id"`
	Answers []SelectedAnswer `json:"answers"`
}

// SubmitAttempt grades a finished attempt. Callers are responsible for not
// submitting the same attempt twice; the client performs no deduplication.
func (client *Client) SubmitAttempt(ctx context.Context, paperID int64, answers []SelectedAnswer) (AttemptResult, error) {
	var result AttemptResult
	err := client.do(ctx, http.MethodPost, "/api/bece/attempts/submit/", submitAttemptRequest{PaperID: paperID, Answers: answers}, &result)
	if err != nil {
		return AttemptResult{}, err
	}
	return result, nil
}

// DashboardStats returns the learner's aggregated practice statistics.
func (client *Client) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	if err := client.do(ctx, http.MethodGet, "/api/bece/dashboard/stats/", nil, &stats); err != nil {
		return DashboardStats{}, err
	}
	return stats, nil
}
