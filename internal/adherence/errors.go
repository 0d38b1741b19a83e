// internal/adherence/errors.go
package adherence

import "fmt"

type InsufficientDataError struct {
	Records  int
	Required int
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d eligible records, need %d", e.Records, e.Required)
}

func ErrInsufficientData(records, required int) error {
	return InsufficientDataError{Records: records, Required: required}
}

type ModelNotTrainedError struct{}

func (e ModelNotTrainedError) Error() string {
	return "model not trained: run a training pass before predicting"
}

func ErrModelNotTrained() error {
	return ModelNotTrainedError{}
}

type InvalidTimestampError struct {
	Value string
}

func (e InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp: %q", e.Value)
}

func ErrInvalidTimestamp(value string) error {
	return InvalidTimestampError{Value: value}
}

type InvalidInputError struct {
	Reason string
}

func (e InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func ErrInvalidInput(reason string) error {
	return InvalidInputError{Reason: reason}
}

type MedicationNotFoundError struct {
	ID string
}

func (e MedicationNotFoundError) Error() string {
	return fmt.Sprintf("medication not found: %s", e.ID)
}

func ErrMedicationNotFound(id string) error {
	return MedicationNotFoundError{ID: id}
}

func WrapError(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}
