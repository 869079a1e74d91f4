package utils

import "fmt"

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func NewSSHError(err error) *APIError {
	return &APIError{
		Code:    1001,
		Message: "SSH connection error",
		Details: err.Error(),
	}
}

func NewDeployError(step string, err error) *APIError {
	return &APIError{
		Code:    2001,
		Message: fmt.Sprintf("deployment step %s failed", step),
		Details: err.Error(),
	}
}

func NewValidationError(field string, err error) *APIError {
	return &APIError{
		Code:    3001,
		Message: fmt.Sprintf("invalid parameter: %s", field),
		Details: err.Error(),
	}
}

func NewRequestError(err error) *APIError {
	return &APIError{
		Code:    3002,
		Message: "invalid request payload",
		Details: err.Error(),
	}
}
