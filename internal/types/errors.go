package types

import (
	"errors"
	"fmt"
)

// MissingCredentialError is raised during config resolution when a ${VAR}
// placeholder has no value in the environment. It is fatal: no executor
// runs after it.
type MissingCredentialError struct {
	Variable string
	Executor string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential: environment variable %s is not set (executor: %s)", e.Variable, e.Executor)
}

func NewMissingCredentialError(variable, executor string) *MissingCredentialError {
	return &MissingCredentialError{
		Variable: variable,
		Executor: executor,
	}
}

func IsMissingCredential(err error) bool {
	var mc *MissingCredentialError
	return errors.As(err, &mc)
}

// ExecutorError is a failure scoped to one executor's fetch. It never
// escalates past that executor's FetchResult.
type ExecutorError struct {
	Executor string
	Timeout  bool
	Err      error
}

func (e *ExecutorError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("executor %s timed out: %v", e.Executor, e.Err)
	}
	return fmt.Sprintf("executor %s failed: %v", e.Executor, e.Err)
}

func (e *ExecutorError) Unwrap() error {
	return e.Err
}

func NewExecutorError(executor string, err error) *ExecutorError {
	return &ExecutorError{Executor: executor, Err: err}
}

func NewTimeoutError(executor string, err error) *ExecutorError {
	return &ExecutorError{Executor: executor, Timeout: true, Err: err}
}

func IsTimeout(err error) bool {
	var ee *ExecutorError
	return errors.As(err, &ee) && ee.Timeout
}

// PersistenceError is reported when writing a run report fails. The
// in-memory report is still valid.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist run report to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
