package internal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/NYCU-SDC/summer/pkg/problem"
)

// ErrRequiredQuestionsUnanswered reports which questions a submission left blank,
// identified by their 1-based position within the survey.
type ErrRequiredQuestionsUnanswered struct {
	QuestionNumbers []int
}

func (e ErrRequiredQuestionsUnanswered) Error() string {
	numbers := make([]string, len(e.QuestionNumbers))
	for i, n := range e.QuestionNumbers {
		numbers[i] = "Q" + strconv.Itoa(n)
	}

	return "required questions are not answered: " + strings.Join(numbers, ", ")
}

// ErrQuestionOptionsInvalid rejects an authoring request whose choice question
// does not carry a usable option set, identified by its 1-based position.
type ErrQuestionOptionsInvalid struct {
	QuestionNumber int
	QuestionText   string
	Reason         string
}

func (e ErrQuestionOptionsInvalid) Error() string {
	return fmt.Sprintf("question %d (%q): %s", e.QuestionNumber, e.QuestionText, e.Reason)
}

var (
	// Auth Errors
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrProviderNotFound    = errors.New("provider not found")
	ErrNewStateFailed      = errors.New("failed to create new jwt state")
	ErrOAuthError          = errors.New("failed to finish OAuth flow, OAuth error received")
	ErrInvalidCallbackInfo = errors.New("invalid callback info")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrUnauthorizedError   = errors.New("unauthorized error")
	ErrInternalServerError = errors.New("internal server error")
	ErrForbiddenError      = errors.New("forbidden error")
	ErrNotFound            = errors.New("not found")

	// JWT Authentication Errors
	ErrMissingAuthHeader       = errors.New("missing access token")
	ErrInvalidAuthHeaderFormat = errors.New("invalid access token")
	ErrInvalidJWTToken         = errors.New("invalid JWT token")
	ErrJWTTokenExpired         = errors.New("JWT token expired")
	ErrInvalidAuthUser         = errors.New("invalid authenticated user")

	// User Errors
	ErrUserNotFound          = errors.New("user not found")
	ErrNoUserInContext       = errors.New("no user found in request context")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrEmailNotConfirmed     = errors.New("email not confirmed")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrPasswordMismatch      = errors.New("password confirmation does not match")
	ErrConfirmTokenNotFound  = errors.New("confirmation token not found")
	ErrCredentialNotFound    = errors.New("credential not found for user")
	ErrAdminOnly             = errors.New("admin role required")
	ErrInvalidRole           = errors.New("invalid role")

	ErrInvalidUUID        = errors.New("invalid uuid")
	ErrInvalidRequestBody = errors.New("invalid request body")

	// Survey Errors
	ErrSurveyNotFound      = errors.New("survey not found")
	ErrSurveyClosed        = errors.New("survey deadline has passed")
	ErrSurveyNotPublished  = errors.New("survey is not published")
	ErrSurveyHasResponses  = errors.New("survey already has responses and can no longer be edited")
	ErrNotSurveyAuthor     = errors.New("only the survey author may perform this action")
	ErrSurveyFull          = errors.New("survey has reached its maximum number of responses")
	ErrInvalidCategory     = errors.New("invalid survey category")
	ErrNoQuestions         = errors.New("survey requires at least one question")
	ErrInvalidDeadline     = errors.New("deadline must be a calendar date (YYYY-MM-DD)")

	// Question Errors
	ErrQuestionNotFound        = errors.New("question not found")
	ErrUnsupportedQuestionType = errors.New("unsupported question type")
	ErrValidationFailed        = errors.New("validation failed")

	// Response Errors
	ErrResponseNotFound      = errors.New("response not found")
	ErrResponseAlreadyExists = errors.New("user already has a response for this survey")

	// Results Errors
	ErrResultsRespondentsOnly = errors.New("results are visible to respondents only, respond to the survey first")
	ErrResultsAuthorOnly      = errors.New("results are visible to the survey author only")
)

func NewProblemWriter() *problem.HttpWriter {
	return problem.NewWithMapping(ErrorHandler)
}

func ErrorHandler(err error) problem.Problem {
	switch {
	case errors.Is(err, ErrInvalidRefreshToken):
		return problem.NewNotFoundProblem("refresh token not found")
	case errors.Is(err, ErrProviderNotFound):
		return problem.NewNotFoundProblem("provider not found")
	case errors.Is(err, ErrInvalidCallbackInfo):
		return problem.NewValidateProblem("invalid callback info")
	case errors.Is(err, ErrOAuthError):
		return problem.NewBadRequestProblem("failed to finish OAuth flow")
	case errors.Is(err, ErrPermissionDenied):
		return problem.NewForbiddenProblem("permission denied")
	case errors.Is(err, ErrUnauthorizedError):
		return problem.NewUnauthorizedProblem("unauthorized error")
	case errors.Is(err, ErrInternalServerError):
		return problem.NewInternalServerProblem("internal server error")
	case errors.Is(err, ErrForbiddenError):
		return problem.NewForbiddenProblem("forbidden error")
	case errors.Is(err, ErrNotFound):
		return problem.NewNotFoundProblem("not found")

	// JWT Authentication Errors
	case errors.Is(err, ErrMissingAuthHeader):
		return problem.NewUnauthorizedProblem("missing access token")
	case errors.Is(err, ErrInvalidAuthHeaderFormat):
		return problem.NewUnauthorizedProblem("invalid access token")
	case errors.Is(err, ErrInvalidJWTToken):
		return problem.NewUnauthorizedProblem("invalid JWT token")
	case errors.Is(err, ErrJWTTokenExpired):
		return problem.NewUnauthorizedProblem("JWT token expired")
	case errors.Is(err, ErrInvalidAuthUser):
		return problem.NewUnauthorizedProblem("invalid authenticated user")

	// User Errors
	case errors.Is(err, ErrUserNotFound):
		return problem.NewNotFoundProblem("user not found")
	case errors.Is(err, ErrNoUserInContext):
		return problem.NewUnauthorizedProblem("no user found in request context")
	case errors.Is(err, ErrEmailAlreadyExists):
		return problem.NewValidateProblem("email already exists")
	case errors.Is(err, ErrEmailNotConfirmed):
		return problem.NewForbiddenProblem("email not confirmed, please confirm your email or request a new confirmation link")
	case errors.Is(err, ErrInvalidCredentials):
		return problem.NewUnauthorizedProblem("invalid email or password")
	case errors.Is(err, ErrPasswordMismatch):
		return problem.NewValidateProblem("password confirmation does not match")
	case errors.Is(err, ErrConfirmTokenNotFound):
		return problem.NewNotFoundProblem("confirmation token not found")
	case errors.Is(err, ErrCredentialNotFound):
		return problem.NewNotFoundProblem("credential not found for user")
	case errors.Is(err, ErrAdminOnly):
		return problem.NewForbiddenProblem("admin role required")
	case errors.Is(err, ErrInvalidRole):
		return problem.NewValidateProblem("invalid role value")
	case errors.Is(err, ErrInvalidUUID):
		return problem.NewBadRequestProblem("invalid uuid")
	case errors.Is(err, ErrInvalidRequestBody):
		return problem.NewBadRequestProblem("invalid request body")

	// Survey Errors
	case errors.Is(err, ErrSurveyNotFound):
		return problem.NewNotFoundProblem("survey not found")
	case errors.Is(err, ErrSurveyClosed):
		return problem.NewValidateProblem("survey deadline has passed")
	case errors.Is(err, ErrSurveyNotPublished):
		return problem.NewValidateProblem("survey is not published")
	case errors.Is(err, ErrSurveyHasResponses):
		return problem.NewValidateProblem("survey already has responses and can no longer be edited")
	case errors.Is(err, ErrNotSurveyAuthor):
		return problem.NewForbiddenProblem("only the survey author may perform this action")
	case errors.Is(err, ErrSurveyFull):
		return problem.NewValidateProblem("survey has reached its maximum number of responses")
	case errors.Is(err, ErrInvalidCategory):
		return problem.NewValidateProblem("invalid survey category")
	case errors.Is(err, ErrNoQuestions):
		return problem.NewValidateProblem("survey requires at least one question")
	case errors.Is(err, ErrInvalidDeadline):
		return problem.NewValidateProblem("deadline must be a calendar date (YYYY-MM-DD)")

	// Question Errors
	case errors.Is(err, ErrQuestionNotFound):
		return problem.NewNotFoundProblem("question not found")
	case errors.Is(err, ErrUnsupportedQuestionType):
		return problem.NewValidateProblem("unsupported question type")

	// Response Errors
	case errors.Is(err, ErrResponseNotFound):
		return problem.NewNotFoundProblem("response not found")
	case errors.Is(err, ErrResponseAlreadyExists):
		return problem.NewValidateProblem("user already has a response for this survey")

	// Results Errors
	case errors.Is(err, ErrResultsRespondentsOnly):
		return problem.NewForbiddenProblem("respond to the survey first to view its results")
	case errors.Is(err, ErrResultsAuthorOnly):
		return problem.NewForbiddenProblem("only the survey author may view these results")

	// Submission Errors
	case errors.As(err, &ErrRequiredQuestionsUnanswered{}):
		return problem.NewValidateProblem(err.Error())
	case errors.As(err, &ErrQuestionOptionsInvalid{}):
		return problem.NewValidateProblem(err.Error())

	// Validation Errors
	case errors.Is(err, ErrValidationFailed):
		return problem.NewValidateProblem("validation failed")
	}
	return problem.Problem{}
}
