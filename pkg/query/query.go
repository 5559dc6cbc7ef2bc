// Package query evaluates JSONPath and expr-lang expressions over decoded
// response bodies.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/yalp/jsonpath"
)

// Decode parses a JSON body into generic values.
func Decode(data []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return doc, nil
}

// JSONPath runs path against doc. A leading "$" is added when missing so
// "services[0]" and "$.services[0]" are equivalent.
func JSONPath(doc any, path string) (any, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty jsonpath")
	}
	if !strings.HasPrefix(path, "$") {
		path = "$." + strings.TrimPrefix(path, ".")
	}
	out, err := jsonpath.Read(doc, path)
	if err != nil {
		return nil, fmt.Errorf("jsonpath %q: %w", path, err)
	}
	return out, nil
}

// Eval compiles and runs an expr-lang expression against env.
func Eval(expression string, env map[string]any) (any, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, errors.New("empty expression")
	}
	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expression, err)
	}
	return out, nil
}
