package abook

import (
	"crypto/sha1"
	"fmt"
	"io"
	"sort"
)

// ETag returns the change fingerprint of an entry: a quoted SHA-1 over
// the textual fields in sorted key order. Photo side-file content is not
// covered, so photo-only changes do not move the fingerprint.
func (e Entry) ETag() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	h := sha1.New()
	for _, k := range keys {
		_, _ = io.WriteString(h, k)
		_, _ = io.WriteString(h, "=")
		_, _ = io.WriteString(h, e[k])
		_, _ = io.WriteString(h, "\n")
	}

	return fmt.Sprintf("%q", fmt.Sprintf("%x", h.Sum(nil)))
}
