package model

import "fmt"

// NotFittedError reports that Predict (or another operation requiring a
// trained model) was called before a successful Fit.
type NotFittedError struct {
	Op string // the operation that was attempted, e.g. "KernelRidge.Predict"
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: model is not fitted", e.Op)
}

// ShapeMismatchError reports row or column counts that do not line up, either
// between a feature matrix and its target vector at fit time, or between a
// prediction input and the matrix the model was trained on.
type ShapeMismatchError struct {
	What string // which dimension disagrees, e.g. "target rows", "feature columns"
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s: want %d, got %d", e.What, e.Want, e.Got)
}

// InvalidParameterError reports a hyperparameter rejected by a model's
// Configure: an unknown name, a value of the wrong type, or a value outside
// the domain the model accepts.
type InvalidParameterError struct {
	Name   string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q (value %v): %s", e.Name, e.Value, e.Reason)
}

// UnsupportedOperationError reports an operation a particular model family
// does not implement, such as feature importances on a kernel machine.
type UnsupportedOperationError struct {
	Op    string
	Model string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: not supported by %s", e.Op, e.Model)
}
