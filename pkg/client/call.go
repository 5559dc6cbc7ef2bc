package client

import (
	"errors"
	"fmt"
	"strings"
)

// Method is an HTTP method accepted by the call command.
type Method string

const (
	GET    Method = "GET"
	POST   Method = "POST"
	PUT    Method = "PUT"
	PATCH  Method = "PATCH"
	DELETE Method = "DELETE"
)

// ParseMethod accepts a method name in any case.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(s)); m {
	case GET, POST, PUT, PATCH, DELETE:
		return m, nil
	}
	return "", fmt.Errorf("unknown method %q", s)
}

// Call describes one API request relative to an endpoint.
type Call struct {
	Method Method
	Path   string
	Query  string
	Body   string
}

// ErrNotEnoughParameters is returned by ParseCall for fewer than two words.
var ErrNotEnoughParameters = errors.New("not enough parameters")

// ParseCall parses "<method> <path> [<query>] [<body>...]". The body is every
// remaining word joined by a single space. A query of "-" means none. A query
// written inline in the path is merged with the query argument.
func ParseCall(args []string) (Call, error) {
	if len(args) < 2 {
		return Call{}, ErrNotEnoughParameters
	}
	m, err := ParseMethod(args[0])
	if err != nil {
		return Call{}, err
	}
	path, inline, _ := strings.Cut(args[1], "?")
	call := Call{Method: m, Path: path, Query: inline}
	if len(args) > 2 && args[2] != "-" {
		call.Query = joinQuery(call.Query, strings.TrimPrefix(args[2], "?"))
	}
	if len(args) > 3 {
		call.Body = strings.Join(args[3:], " ")
	}
	return call, nil
}

func joinQuery(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "&" + b
}

func (c Call) String() string {
	s := string(c.Method) + " " + c.Path
	if c.Query != "" {
		s += "?" + c.Query
	}
	return s
}
