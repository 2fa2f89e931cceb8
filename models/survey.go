package models

import "strings"

// SurveyResponse is a single answered question.
type SurveyResponse struct {
	UserID     string `dynamodbav:"userId" json:"userId"`         // Partition Key
	QuestionID string `dynamodbav:"questionId" json:"questionId"` // Sort Key
	Value      string `dynamodbav:"value" json:"value"`
}

// SurveyAnswers maps question id to a normalised answer.
type SurveyAnswers map[string]string

// NewSurveyAnswers folds responses into answers. Blank question ids or values
// are dropped and later responses to the same question win.
func NewSurveyAnswers(responses []SurveyResponse) SurveyAnswers {
	answers := make(SurveyAnswers, len(responses))
	for _, r := range responses {
		q := strings.TrimSpace(r.QuestionID)
		v := strings.ToLower(strings.TrimSpace(r.Value))
		if q == "" || v == "" {
			continue
		}
		answers[q] = v
	}
	return answers
}

// Get returns the answer for question, or "" when unanswered.
func (a SurveyAnswers) Get(question string) string {
	return a[question]
}
