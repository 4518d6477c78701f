package material

import (
	"errors"
	"fmt"
)

// Ошибки реестра материалов
var (
	ErrAlreadyInitialized    = errors.New("material: registry already initialized")
	ErrNotInitialized        = errors.New("material: registry not initialized")
	ErrDuplicateRegistration = errors.New("material: duplicate registration")
	ErrInvariantViolation    = errors.New("material: invariant violation")
	ErrNotRegistered         = errors.New("material: material not registered")
)

// DuplicateError сообщает, что слот идентификатора уже занят.
// Incumbent может быть nil, если конфликт обнаружен в хранилище имен, а
// владелец id еще не зарегистрирован в этом процессе.
type DuplicateError struct {
	Material  *Material
	ID        uint16
	Incumbent *Material
	Err       error
}

func (e *DuplicateError) Error() string {
	incumbent := "<unknown>"
	if e.Incumbent != nil {
		incumbent = e.Incumbent.Name()
	}
	msg := fmt.Sprintf("material: %q cannot take id %d, already mapped to %q", e.Material.Name(), e.ID, incumbent)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap позволяет errors.Is(err, ErrDuplicateRegistration) и проверку
// исходной ошибки хранилища.
func (e *DuplicateError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDuplicateRegistration, e.Err}
	}
	return []error{ErrDuplicateRegistration}
}
