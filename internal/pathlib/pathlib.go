// Package pathlib canonicalizes request paths before they reach the filesystem.
package pathlib

import (
	"path"
	"strings"
)

// Clean canonicalizes a request path into a rooted, slash-separated name. Paths that
// would walk above the root, contain a NUL byte or a backslash are rejected, so the
// result is always safe to resolve under any base directory
func Clean(target string) (name string, ok bool) {
	if strings.IndexByte(target, 0) != -1 || strings.IndexByte(target, '\\') != -1 {
		return "", false
	}

	for rest := target; len(rest) > 0; {
		var segment string
		segment, rest, _ = strings.Cut(rest, "/")
		if segment == ".." {
			return "", false
		}
	}

	return path.Clean("/" + target), true
}
