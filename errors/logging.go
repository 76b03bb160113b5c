// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package errors

import "log/slog"

// Attrs exposes the structured fields of the error for logging.
func (e *Error) Attrs() []slog.Attr {
	a := make([]slog.Attr, 0, 4)

	a = append(a, slog.String("kind", e.Kind.String()))

	if e.NestedError != nil {
		a = append(a, slog.Any("nested_error", e.NestedError))
	}

	if e.PropertyName != "" {
		a = append(a, slog.String("property_name", e.PropertyName))
	}

	if e.PropertyValue != nil {
		a = append(a, slog.Any("property_value", e.PropertyValue))
	}

	return a
}
