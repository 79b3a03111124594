package survey

import (
	"errors"
	"testing"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey/question"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuestions(t *testing.T) {
	tests := []struct {
		name        string
		inputs      []QuestionInput
		shouldError bool
		validate    func(t *testing.T, err error)
	}{
		{
			name:        "Should reject an empty question list",
			inputs:      nil,
			shouldError: true,
			validate: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, internal.ErrNoQuestions)
			},
		},
		{
			name: "Should accept a text question without options",
			inputs: []QuestionInput{
				{Text: "Tell us more", Type: question.TypeLongText},
			},
			shouldError: false,
		},
		{
			name: "Should accept a choice question with two distinct options",
			inputs: []QuestionInput{
				{Text: "Pick one", Type: question.TypeSingleChoice, Options: []string{"Yes", "No"}},
			},
			shouldError: false,
		},
		{
			name: "Should reject an unsupported question type",
			inputs: []QuestionInput{
				{Text: "Rate us", Type: question.Type("scale")},
			},
			shouldError: true,
			validate: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, internal.ErrUnsupportedQuestionType)
			},
		},
		{
			name: "Should reject empty question text",
			inputs: []QuestionInput{
				{Text: "   ", Type: question.TypeShortText},
			},
			shouldError: true,
		},
		{
			name: "Should reject a choice question with a single option",
			inputs: []QuestionInput{
				{Text: "Pick one", Type: question.TypeSingleChoice, Options: []string{"Only"}},
			},
			shouldError: true,
		},
		{
			name: "Should reject duplicate options that differ only in case",
			inputs: []QuestionInput{
				{Text: "Pick one", Type: question.TypeMultipleChoice, Options: []string{"Yes", "yes", "No"}},
			},
			shouldError: true,
		},
		{
			name: "Should reject duplicate options that differ only in whitespace",
			inputs: []QuestionInput{
				{Text: "Pick one", Type: question.TypeSingleChoice, Options: []string{"Yes", " Yes ", "No"}},
			},
			shouldError: true,
		},
		{
			name: "Should ignore blank options when counting distinct labels",
			inputs: []QuestionInput{
				{Text: "Pick one", Type: question.TypeSingleChoice, Options: []string{"Yes", "  ", ""}},
			},
			shouldError: true,
		},
		{
			name: "Should report the one-based number of the offending question",
			inputs: []QuestionInput{
				{Text: "Tell us more", Type: question.TypeShortText},
				{Text: "Pick one", Type: question.TypeSingleChoice, Options: []string{"Only"}},
			},
			shouldError: true,
			validate: func(t *testing.T, err error) {
				var invalid internal.ErrQuestionOptionsInvalid
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, 2, invalid.QuestionNumber)
				assert.Equal(t, "Pick one", invalid.QuestionText)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuestions(tc.inputs)
			if tc.shouldError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tc.validate != nil {
				tc.validate(t, err)
			}
		})
	}
}
