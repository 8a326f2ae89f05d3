package domain

import "errors"

// Sentinel errors for the forecasting pipeline. Callers classify
// failures with errors.Is and surface the kind across the API boundary.
var (
	// ErrSchema indicates malformed or incomplete input records.
	ErrSchema = errors.New("schema error")
	// ErrInsufficientData indicates a series below a stage's minimum-point floor.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrModelNotFound indicates a forecast was requested before training.
	ErrModelNotFound = errors.New("model not found")
	// ErrValidation indicates a holdout split could not be made.
	ErrValidation = errors.New("validation error")
	// ErrPersistence indicates a store write failure.
	ErrPersistence = errors.New("persistence error")
)

// ErrorKind returns the stable string identifier for a pipeline error,
// used in batch results and API payloads.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSchema):
		return "schema_error"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	default:
		return "internal_error"
	}
}
