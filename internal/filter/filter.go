package filter

import (
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"
)

// Expectation is a compiled JMESPath assertion applied to decoded response
// bodies. A nil *Expectation accepts everything.
type Expectation struct {
	expression string
	jp         *jmespath.JMESPath
}

// Compile parses expression. An empty expression yields a nil Expectation.
func Compile(expression string) (*Expectation, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, nil
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}
	return &Expectation{expression: expression, jp: jp}, nil
}

// String returns the source expression
func (e *Expectation) String() string {
	if e == nil {
		return ""
	}
	return e.expression
}

// Check evaluates the expression against data and reports whether the
// result is truthy. Falsy values follow JMESPath: null, false, empty
// strings, empty arrays and empty objects.
func (e *Expectation) Check(data any) (bool, error) {
	if e == nil {
		return true, nil
	}

	result, err := e.jp.Search(data)
	if err != nil {
		return false, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return truthy(result), nil
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	return true
}
