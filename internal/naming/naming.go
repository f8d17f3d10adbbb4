package naming

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ToPosix converts a file path to forward-slash form. Windows and POSIX
// spellings of the same path produce identical output.
func ToPosix(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Hash returns the stable key for a file path: the md5 hex digest of its
// forward-slash form. The digest identifies, it does not protect; collision
// resistance is not a requirement here.
func Hash(p string) string {
	sum := md5.Sum([]byte(ToPosix(p)))
	return hex.EncodeToString(sum[:])
}

// Extension returns the lowercase file extension without the leading dot,
// or "" when the path has none.
func Extension(p string) string {
	ext := filepath.Ext(p)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// RelativeURI converts a relative file path into a URI reference usable from
// the generated viewer page: forward slashes, each segment percent-encoded.
func RelativeURI(p string) string {
	clean := path.Clean(ToPosix(p))
	if clean == "." {
		return ""
	}
	segments := strings.Split(clean, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
