package schema

import (
	"errors"
	"fmt"
)

// ConfigError is returned when an entity type is not persistent or its
// declaration is invalid.
type ConfigError struct {
	Type  string
	Field string
	Msg   string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cascade: model configuration: %s.%s: %s", e.Type, e.Field, e.Msg)
	}
	return fmt.Sprintf("cascade: model configuration: %s: %s", e.Type, e.Msg)
}

// IsConfigError returns a boolean indicating whether the error is a model
// configuration error.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

func configErr(typ, field, format string, args ...any) error {
	return &ConfigError{Type: typ, Field: field, Msg: fmt.Sprintf(format, args...)}
}
