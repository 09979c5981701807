// Package http1 parses the status line of an HTTP/1.x request.
package http1

import (
	"strings"
	"unicode"

	"github.com/indigo-web/pages/http"
	"github.com/indigo-web/pages/http/method"
	"github.com/indigo-web/pages/http/proto"
	"github.com/indigo-web/pages/http/status"
)

const statusLineTokens = 3

// Parse validates a status line and returns the request it describes. The checks run in
// order (token count, method, target, version), so the first failing one determines the
// error. On error the returned request is always zero.
func Parse(line string) (http.Request, error) {
	var tokens [statusLineTokens]string

	n := 0
	for rest := line; ; {
		var token string
		token, rest = nextField(rest)
		if len(token) == 0 {
			break
		}

		if n == statusLineTokens {
			return http.Request{}, status.ErrMalformedStatusLine
		}

		tokens[n] = token
		n++
	}

	if n != statusLineTokens {
		return http.Request{}, status.ErrMalformedStatusLine
	}

	request := http.Request{
		Method: method.Parse(tokens[0]),
	}
	if request.Method == method.Unknown {
		return http.Request{}, status.ErrUnsupportedMethod
	}

	target := tokens[1]
	if target[0] != '/' {
		return http.Request{}, status.ErrInvalidPath
	}

	request.Path, request.Query, request.HasQuery = strings.Cut(target, "?")

	if !proto.Wellformed(tokens[2]) {
		return http.Request{}, status.ErrInvalidVersion
	}

	request.Proto = proto.FromString(tokens[2])
	if request.Proto == proto.Unknown {
		return http.Request{}, status.ErrUnsupportedVersion
	}

	return request, nil
}

// nextField skips leading whitespace and returns the first token together with the rest
// of the string. Whitespace is defined the same way as in strings.Fields
func nextField(str string) (field, rest string) {
	start := strings.IndexFunc(str, isNotSpace)
	if start == -1 {
		return "", ""
	}

	str = str[start:]
	end := strings.IndexFunc(str, unicode.IsSpace)
	if end == -1 {
		return str, ""
	}

	return str[:end], str[end:]
}

func isNotSpace(r rune) bool {
	return !unicode.IsSpace(r)
}
