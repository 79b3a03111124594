package answer

import (
	"testing"

	"campuspoll/survey-backend/internal/survey/question"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	optionA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	optionB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	tests := []struct {
		name        string
		qType       question.Type
		optionIDs   []uuid.UUID
		text        string
		shouldError bool
		validate    func(t *testing.T, v Value)
	}{
		{
			name:      "Should build a single choice value from one option",
			qType:     question.TypeSingleChoice,
			optionIDs: []uuid.UUID{optionA},
			validate: func(t *testing.T, v Value) {
				assert.Equal(t, KindSingleChoice, v.Kind())
				assert.Equal(t, optionA, v.OptionID())
			},
		},
		{
			name:        "Should reject a single choice value with no options",
			qType:       question.TypeSingleChoice,
			optionIDs:   nil,
			shouldError: true,
		},
		{
			name:        "Should reject a single choice value with two options",
			qType:       question.TypeSingleChoice,
			optionIDs:   []uuid.UUID{optionA, optionB},
			shouldError: true,
		},
		{
			name:      "Should build a multiple choice value from several options",
			qType:     question.TypeMultipleChoice,
			optionIDs: []uuid.UUID{optionA, optionB},
			validate: func(t *testing.T, v Value) {
				assert.Equal(t, KindMultipleChoice, v.Kind())
				assert.Equal(t, []uuid.UUID{optionA, optionB}, v.OptionIDs())
			},
		},
		{
			name:        "Should reject a multiple choice value with no options",
			qType:       question.TypeMultipleChoice,
			optionIDs:   nil,
			shouldError: true,
		},
		{
			name:  "Should build a text value for short text",
			qType: question.TypeShortText,
			text:  "hello",
			validate: func(t *testing.T, v Value) {
				assert.Equal(t, KindText, v.Kind())
				assert.Equal(t, "hello", v.Text())
			},
		},
		{
			name:  "Should build a text value for long text",
			qType: question.TypeLongText,
			text:  "a longer answer",
			validate: func(t *testing.T, v Value) {
				assert.Equal(t, KindText, v.Kind())
			},
		},
		{
			name:        "Should reject an unsupported question type",
			qType:       question.Type("scale"),
			shouldError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := For(tc.qType, tc.optionIDs, tc.text)
			if tc.shouldError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.validate != nil {
				tc.validate(t, v)
			}
		})
	}
}

func TestValue_MatchesType(t *testing.T) {
	optionA := uuid.New()

	tests := []struct {
		name     string
		value    Value
		qType    question.Type
		expected bool
	}{
		{
			name:     "Should match single choice value to single choice question",
			value:    SingleChoice(optionA),
			qType:    question.TypeSingleChoice,
			expected: true,
		},
		{
			name:     "Should not match single choice value to multiple choice question",
			value:    SingleChoice(optionA),
			qType:    question.TypeMultipleChoice,
			expected: false,
		},
		{
			name:     "Should match multiple choice value to multiple choice question",
			value:    MultipleChoice([]uuid.UUID{optionA}),
			qType:    question.TypeMultipleChoice,
			expected: true,
		},
		{
			name:     "Should match text value to short text question",
			value:    Text("x"),
			qType:    question.TypeShortText,
			expected: true,
		},
		{
			name:     "Should match text value to long text question",
			value:    Text("x"),
			qType:    question.TypeLongText,
			expected: true,
		},
		{
			name:     "Should not match text value to choice question",
			value:    Text("x"),
			qType:    question.TypeSingleChoice,
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.value.MatchesType(tc.qType))
		})
	}
}
