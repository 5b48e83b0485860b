// Package errors derives low-cardinality error labels for metrics and notifications.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/target/veille-api/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics/logs.
// Application errors are labelled by their code. Anything else is unwrapped to the innermost
// concrete type and converted to snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}

// Cause returns the class of the innermost non-application error, or "" when err carries none.
func Cause(err error) string {
	var appErr *apperrors.AppError
	if !goerrors.As(err, &appErr) || appErr.Cause == nil {
		return ""
	}
	return Classify(appErr.Cause)
}
