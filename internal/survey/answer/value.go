// Package answer models submitted answer values as a tagged union so that a
// stored answer always matches its question's declared type.
package answer

import (
	"fmt"

	"campuspoll/survey-backend/internal/survey/question"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSingleChoice   Kind = "single_choice"
	KindMultipleChoice Kind = "multiple_choice"
	KindText           Kind = "text"
)

// Value holds exactly one of the three answer payloads, discriminated by Kind.
type Value struct {
	kind      Kind
	optionID  uuid.UUID
	optionIDs []uuid.UUID
	text      string
}

func SingleChoice(optionID uuid.UUID) Value {
	return Value{kind: KindSingleChoice, optionID: optionID}
}

func MultipleChoice(optionIDs []uuid.UUID) Value {
	return Value{kind: KindMultipleChoice, optionIDs: optionIDs}
}

func Text(text string) Value {
	return Value{kind: KindText, text: text}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) OptionID() uuid.UUID {
	return v.optionID
}

func (v Value) OptionIDs() []uuid.UUID {
	return v.optionIDs
}

func (v Value) Text() string {
	return v.text
}

// MatchesType reports whether the value's kind is the one a question of the
// given type stores.
func (v Value) MatchesType(t question.Type) bool {
	switch v.kind {
	case KindSingleChoice:
		return t == question.TypeSingleChoice
	case KindMultipleChoice:
		return t == question.TypeMultipleChoice
	case KindText:
		return t.IsText()
	}
	return false
}

// For builds a Value for a question of the given type, rejecting payloads
// whose shape does not fit.
func For(t question.Type, optionIDs []uuid.UUID, text string) (Value, error) {
	switch {
	case t == question.TypeSingleChoice:
		if len(optionIDs) != 1 {
			return Value{}, fmt.Errorf("single choice answer requires exactly one option, got %d", len(optionIDs))
		}
		return SingleChoice(optionIDs[0]), nil
	case t == question.TypeMultipleChoice:
		if len(optionIDs) == 0 {
			return Value{}, fmt.Errorf("multiple choice answer requires at least one option")
		}
		return MultipleChoice(optionIDs), nil
	case t.IsText():
		return Text(text), nil
	default:
		return Value{}, fmt.Errorf("unsupported question type %q", t)
	}
}
