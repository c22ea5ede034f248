package schedule

// The four domain error kinds. All are terminal outcomes of request
// validation or business rules, never transient store faults; the
// transport maps each kind to its HTTP status. Anything else that
// escapes the service is an internal fault.

type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}

func notFoundError(msg string) error {
	return &NotFoundError{Msg: msg}
}

type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string {
	return e.Msg
}

func forbiddenError(msg string) error {
	return &ForbiddenError{Msg: msg}
}

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationError(msg string) error {
	return &ValidationError{Msg: msg}
}

type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func conflictError(msg string) error {
	return &ConflictError{Msg: msg}
}
