package submit

import (
	"errors"
	"testing"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey"
	"campuspoll/survey-backend/internal/survey/answer"
	"campuspoll/survey-backend/internal/survey/question"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	choiceQuestionID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	textQuestionID   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	optionYesID      = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")
	optionNoID       = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")
)

// testDetail is a two-question survey: a required Yes/No single choice
// followed by an optional short text question.
func testDetail() survey.Detail {
	return survey.Detail{
		Questions: []question.Question{
			{ID: choiceQuestionID, Text: "Do you commute?", Type: question.TypeSingleChoice, OrderIndex: 1, IsRequired: true},
			{ID: textQuestionID, Text: "Anything else?", Type: question.TypeShortText, OrderIndex: 2, IsRequired: false},
		},
		Options: map[uuid.UUID][]question.Option{
			choiceQuestionID: {
				{ID: optionYesID, QuestionID: choiceQuestionID, Text: "Yes", OrderIndex: 1},
				{ID: optionNoID, QuestionID: choiceQuestionID, Text: "No", OrderIndex: 2},
			},
		},
	}
}

func TestBuildAnswers(t *testing.T) {
	tests := []struct {
		name        string
		inputs      []AnswerInput
		shouldError bool
		validate    func(t *testing.T, values map[uuid.UUID]answer.Value, err error)
	}{
		{
			name: "Should resolve option labels and build tagged values",
			inputs: []AnswerInput{
				{QuestionID: choiceQuestionID, Options: []string{"Yes"}},
				{QuestionID: textQuestionID, Text: "By bus"},
			},
			validate: func(t *testing.T, values map[uuid.UUID]answer.Value, err error) {
				require.Len(t, values, 2)
				assert.Equal(t, answer.KindSingleChoice, values[choiceQuestionID].Kind())
				assert.Equal(t, optionYesID, values[choiceQuestionID].OptionID())
				assert.Equal(t, answer.KindText, values[textQuestionID].Kind())
				assert.Equal(t, "By bus", values[textQuestionID].Text())
			},
		},
		{
			name: "Should skip an unanswered optional question",
			inputs: []AnswerInput{
				{QuestionID: choiceQuestionID, Options: []string{"No"}},
			},
			validate: func(t *testing.T, values map[uuid.UUID]answer.Value, err error) {
				require.Len(t, values, 1)
				assert.Equal(t, optionNoID, values[choiceQuestionID].OptionID())
			},
		},
		{
			name: "Should trim text answers",
			inputs: []AnswerInput{
				{QuestionID: choiceQuestionID, Options: []string{"Yes"}},
				{QuestionID: textQuestionID, Text: "  trimmed  "},
			},
			validate: func(t *testing.T, values map[uuid.UUID]answer.Value, err error) {
				assert.Equal(t, "trimmed", values[textQuestionID].Text())
			},
		},
		{
			name:        "Should report a missing required question by its number",
			inputs:      []AnswerInput{{QuestionID: textQuestionID, Text: "only text"}},
			shouldError: true,
			validate: func(t *testing.T, values map[uuid.UUID]answer.Value, err error) {
				var missing internal.ErrRequiredQuestionsUnanswered
				require.True(t, errors.As(err, &missing))
				assert.Equal(t, []int{1}, missing.QuestionNumbers)
			},
		},
		{
			name: "Should treat whitespace-only text as unanswered",
			inputs: []AnswerInput{
				{QuestionID: choiceQuestionID, Options: []string{"Yes"}},
				{QuestionID: textQuestionID, Text: "   "},
			},
			validate: func(t *testing.T, values map[uuid.UUID]answer.Value, err error) {
				require.Len(t, values, 1)
				_, ok := values[textQuestionID]
				assert.False(t, ok)
			},
		},
		{
			name: "Should treat blank option labels as unanswered",
			inputs: []AnswerInput{
				{QuestionID: choiceQuestionID, Options: []string{"  ", ""}},
			},
			shouldError: true,
			validate: func(t *testing.T, values map[uuid.UUID]answer.Value, err error) {
				var missing internal.ErrRequiredQuestionsUnanswered
				require.True(t, errors.As(err, &missing))
			},
		},
		{
			name: "Should abort when an answer targets an unknown question",
			inputs: []AnswerInput{
				{QuestionID: choiceQuestionID, Options: []string{"Yes"}},
				{QuestionID: uuid.MustParse("cccccccc-0000-0000-0000-000000000009"), Text: "stray"},
			},
			shouldError: true,
			validate: func(t *testing.T, values map[uuid.UUID]answer.Value, err error) {
				assert.ErrorIs(t, err, internal.ErrQuestionNotFound)
			},
		},
		{
			name: "Should reject an option label that does not exist",
			inputs: []AnswerInput{
				{QuestionID: choiceQuestionID, Options: []string{"Maybe"}},
			},
			shouldError: true,
			validate: func(t *testing.T, values map[uuid.UUID]answer.Value, err error) {
				var invalid internal.ErrQuestionOptionsInvalid
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, 1, invalid.QuestionNumber)
			},
		},
		{
			name: "Should reject two selections on a single choice question",
			inputs: []AnswerInput{
				{QuestionID: choiceQuestionID, Options: []string{"Yes", "No"}},
			},
			shouldError: true,
		},
		{
			name: "Should match option labels after trimming",
			inputs: []AnswerInput{
				{QuestionID: choiceQuestionID, Options: []string{"  Yes  "}},
			},
			validate: func(t *testing.T, values map[uuid.UUID]answer.Value, err error) {
				assert.Equal(t, optionYesID, values[choiceQuestionID].OptionID())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			values, err := buildAnswers(testDetail(), tc.inputs)
			if tc.shouldError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tc.validate != nil {
				tc.validate(t, values, err)
			}
		})
	}
}

func TestAnswered(t *testing.T) {
	tests := []struct {
		name     string
		input    AnswerInput
		expected bool
	}{
		{
			name:     "Should count a non-blank option label as answered",
			input:    AnswerInput{Options: []string{"Yes"}},
			expected: true,
		},
		{
			name:     "Should count non-blank text as answered",
			input:    AnswerInput{Text: "something"},
			expected: true,
		},
		{
			name:     "Should count an empty input as unanswered",
			input:    AnswerInput{},
			expected: false,
		},
		{
			name:     "Should count whitespace-only text as unanswered",
			input:    AnswerInput{Text: "   "},
			expected: false,
		},
		{
			name:     "Should count blank-only option labels as unanswered",
			input:    AnswerInput{Options: []string{"", "  "}},
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, answered(tc.input))
		})
	}
}
