package results

import (
	"context"
	"testing"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name     string
		count    int64
		total    int64
		expected string
	}{
		{
			name:     "Should render a whole share with one decimal",
			count:    6,
			total:    10,
			expected: "60.0",
		},
		{
			name:     "Should round to one decimal",
			count:    1,
			total:    3,
			expected: "33.3",
		},
		{
			name:     "Should render zero when nothing was selected",
			count:    0,
			total:    10,
			expected: "0.0",
		},
		{
			name:     "Should render zero when the survey has no responses",
			count:    0,
			total:    0,
			expected: "0.0",
		},
		{
			name:     "Should render a full share as 100.0",
			count:    10,
			total:    10,
			expected: "100.0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Percentage(tc.count, tc.total))
		})
	}
}

type fakeRespondedChecker struct {
	responded bool
	err       error
}

func (f fakeRespondedChecker) Exists(_ context.Context, _ uuid.UUID, _ uuid.UUID) (bool, error) {
	return f.responded, f.err
}

func TestService_Authorize(t *testing.T) {
	authorID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	makeSurvey := func(visibility survey.ResultVisibility) survey.Survey {
		return survey.Survey{
			ID:               uuid.New(),
			CreatorID:        authorID,
			ResultVisibility: visibility,
		}
	}

	tests := []struct {
		name          string
		visibility    survey.ResultVisibility
		requesterID   uuid.UUID
		authenticated bool
		responded     bool
		expectedErr   error
	}{
		{
			name:          "Should allow the author regardless of visibility",
			visibility:    survey.VisibilityPrivate,
			requesterID:   authorID,
			authenticated: true,
		},
		{
			name:          "Should allow anyone on public results",
			visibility:    survey.VisibilityPublic,
			requesterID:   otherID,
			authenticated: false,
		},
		{
			name:          "Should allow a respondent on respondent-gated results",
			visibility:    survey.VisibilityRespondents,
			requesterID:   otherID,
			authenticated: true,
			responded:     true,
		},
		{
			name:          "Should reject a non-respondent on respondent-gated results",
			visibility:    survey.VisibilityRespondents,
			requesterID:   otherID,
			authenticated: true,
			responded:     false,
			expectedErr:   internal.ErrResultsRespondentsOnly,
		},
		{
			name:          "Should reject anonymous requesters on respondent-gated results",
			visibility:    survey.VisibilityRespondents,
			requesterID:   uuid.Nil,
			authenticated: false,
			expectedErr:   internal.ErrResultsRespondentsOnly,
		},
		{
			name:          "Should reject non-authors on private results",
			visibility:    survey.VisibilityPrivate,
			requesterID:   otherID,
			authenticated: true,
			responded:     true,
			expectedErr:   internal.ErrResultsAuthorOnly,
		},
		{
			name:          "Should not let an unauthenticated requester pass as the author",
			visibility:    survey.VisibilityPrivate,
			requesterID:   authorID,
			authenticated: false,
			expectedErr:   internal.ErrResultsAuthorOnly,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &Service{responses: fakeRespondedChecker{responded: tc.responded}}

			err := s.authorize(context.Background(), makeSurvey(tc.visibility), tc.requesterID, tc.authenticated)
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
