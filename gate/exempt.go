package gate

import (
	"path"
	"strings"
)

// RequiresAuth reports if p is not covered by any entry of excluded.
//
// Entries match exactly, ignoring a single trailing slash, or by prefix
// when they end with "*". Dot segments in p are resolved first, so
// "/public/../admin" is matched as "/admin". An empty path or an empty
// list always requires authentication.
func RequiresAuth(p string, excluded []string) bool {
	if p == "" || len(excluded) == 0 {
		return true
	}
	p = withSlash(CleanPath(p))
	for _, ex := range excluded {
		if prefix := strings.TrimSuffix(ex, "*"); prefix != ex {
			if strings.HasPrefix(p, prefix) {
				return false
			}
			continue
		}
		if p == withSlash(ex) {
			return false
		}
	}
	return true
}

// CleanPath resolves dot segments and repeated slashes in p, keeping a
// trailing slash if p had one. The result always starts with "/".
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	cleaned := path.Clean(p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

func withSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
