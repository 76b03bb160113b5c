// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/iancoleman/strcase"
)

// Message logs an arbitrary decoded message or packet struct at debug level
// by reflecting its exported fields into snake_cased slog attributes.
func (l *Logger) Message(ctx context.Context, name string, message any) {
	// This is expensive; bail out if we don't need it.
	if !l.Enabled(ctx, slog.LevelDebug) {
		return
	}

	val := realValue(reflect.ValueOf(message))
	if missingValue(val) {
		l.Log(ctx, slog.LevelWarn, fmt.Sprintf("%s not available", name))
	} else {
		l.Log(ctx, slog.LevelDebug, name, reflectAttrs(val)...)
	}
}

func reflectAttrs(val reflect.Value) []slog.Attr {
	typ := val.Type()
	num := typ.NumField()
	var attrs []slog.Attr
	for i := range num {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}

		attrs = append(attrs, reflectAttr(
			strcase.ToSnake(f.Name),
			realValue(val.Field(i)),
		)...)
	}
	return attrs
}

func reflectAttr(name string, val reflect.Value) []slog.Attr {
	// Ignore zero values to keep the log cleaner.
	if missingValue(val) {
		return nil
	}

	switch val.Kind() {
	case reflect.Slice, reflect.Array:
		// Record slices are summarized by length; per-element dumps drown
		// the log at batch rates.
		return []slog.Attr{slog.Int(name+"_count", val.Len())}

	case reflect.Struct:
		as := reflectAttrs(val)
		if len(as) == 0 {
			return nil
		}

		cpy := make([]any, len(as))
		for i, a := range as {
			cpy[i] = a
		}
		return []slog.Attr{slog.Group(name, cpy...)}
	}

	if s, ok := val.Interface().(fmt.Stringer); ok {
		return []slog.Attr{slog.String(name, s.String())}
	}

	return []slog.Attr{slog.Any(name, val.Interface())}
}

func realValue(val reflect.Value) reflect.Value {
	for val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	return val
}

func missingValue(val reflect.Value) bool {
	return val.Kind() == reflect.Invalid || val.IsZero()
}
