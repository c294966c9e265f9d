package zkshell

import (
	"path"
	"strings"
)

// Resolve turns token into a normalized absolute path. Relative tokens are
// taken relative to current. Only the strings are inspected, so the result
// need not name an existing node.
func Resolve(token, current string) string {
	joined := token
	if !strings.HasPrefix(token, "/") {
		joined = current + "/" + token
	}
	cleaned := path.Clean(joined)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = path.Clean("/" + cleaned)
	}
	return cleaned
}
