// Package query extracts the result list from a search response using a JQ path.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// DefaultResults is the JQ path of the result array in a portal search response.
const DefaultResults = ".data"

// Engine is a compiled JQ expression. It is safe to reuse across responses.
type Engine struct {
	expression string
	code       *gojq.Code
}

// NewEngine parses and compiles a JQ expression.
func NewEngine(expression string) (*Engine, error) {
	if strings.TrimSpace(expression) == "" {
		expression = DefaultResults
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	return &Engine{expression: expression, code: code}, nil
}

// Expression returns the source of the compiled expression.
func (e *Engine) Expression() string {
	return e.expression
}

// Results runs the expression against a decoded JSON document and returns the
// array it selects. A missing or null selection yields an empty list; any
// other non-array value is an error.
func (e *Engine) Results(input any) ([]any, error) {
	iter := e.code.Run(input)

	v, ok := iter.Next()
	if !ok || v == nil {
		return []any{}, nil
	}
	if err, isErr := v.(error); isErr {
		return nil, formatJQError(e.expression, err)
	}

	items, isArray := v.([]any)
	if !isArray {
		return nil, fmt.Errorf("%s: expected an array of results, got %T", e.expression, v)
	}
	return items, nil
}

// formatJQError decorates common runtime errors with a hint about the response shape.
// gojq runtime errors are untyped, so hints rely on message text.
func formatJQError(expression string, err error) error {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		return fmt.Errorf("%s: query halted: %w", expression, err)
	}

	var hint string
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "expected an object"):
		hint = " (response body is not a JSON object)"
	case strings.Contains(errStr, "cannot iterate over"):
		hint = " (the path may not exist in this response)"
	}

	return fmt.Errorf("%s: %w%s", expression, err, hint)
}
