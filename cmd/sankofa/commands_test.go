package main

import "testing"

func TestParseAnswers(test *testing.T) {
	test.Parallel()
	selected, err := parseAnswers("12=3, 13=1,14=2")
	if err != nil {
		test.Fatalf("parse answers: %v", err)
	}
	if len(selected) != 3 {
		test.Fatalf("expected three answers, got %d", len(selected))
	}
	if selected[0].QuestionID != 12 || selected[0].AnswerID != 3 {
		test.Fatalf("unexpected first pair: %+v", selected[0])
	}
}

func TestParseAnswersRejectsMalformedInput(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"", "12", "a=b", "12=x", ",,,"} {
		if _, err := parseAnswers(raw); err == nil {
			test.Fatalf("expected error for %q", raw)
		}
	}
}
