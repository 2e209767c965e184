package tools

import "errors"

// Errors surfaced to the model inside a {"error": ...} result. The messages
// are user facing and read aloud, hence Spanish.
var (
	ErrCityNotFound       = errors.New("Ciudad no encontrada")
	ErrInvalidExpression  = errors.New("Expresión inválida")
	ErrNonFiniteResult    = errors.New("El resultado no es un número finito")
	ErrInvalidArguments   = errors.New("Argumentos inválidos")
	errToolNotImplemented = errors.New("tool not implemented")
)
