package http

import (
	"github.com/indigo-web/pages/http/method"
	"github.com/indigo-web/pages/http/proto"
)

// Request represents a parsed HTTP status line. Headers are never interpreted, so
// nothing else of the request is kept
type Request struct {
	// Method is always one of method.List.
	Method method.Method
	// Path is the request target up to the first question mark. Always starts with a slash.
	Path string
	// Query is everything after the first question mark, kept opaque. Meaningful only
	// if HasQuery is set, as a target may end with an empty query.
	Query    string
	HasQuery bool
	// Proto is one of the supported protocol versions.
	Proto proto.Proto
}
