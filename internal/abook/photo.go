package abook

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// photoDirName is the subdirectory beside the addressbook that holds
// contact photos, named photo/<contact-name>.<type>. Keying by name
// means two contacts with the same literal name share one photo file;
// abook has always worked this way.
const photoDirName = "photo"

const photoDirPerms = 0o755

// Photo is an image payload attached to a contact.
type Photo struct {
	// Type is the image type used as both the vCard TYPE parameter and
	// the side-file extension, conventionally "jpeg".
	Type string
	Data []byte
}

// loadPhoto reads photo/<name>.jpeg next to the addressbook. Photos are
// best effort: missing or unreadable files return nil.
func loadPhoto(bookPath, name string) *Photo {
	path := filepath.Join(filepath.Dir(bookPath), photoDirName, name+".jpeg")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	return &Photo{Type: "jpeg", Data: data}
}

// savePhoto writes a photo side-file beside the addressbook, creating
// the photo directory if needed. Failures are swallowed: a photo that
// cannot be stored never fails the conversion that carried it.
func savePhoto(bookPath, name string, p *Photo) {
	if p == nil || name == "" {
		return
	}

	dir := filepath.Join(filepath.Dir(bookPath), photoDirName)

	err := os.MkdirAll(dir, photoDirPerms)
	if err != nil {
		return
	}

	path := filepath.Join(dir, name+"."+p.Type)
	_ = atomic.WriteFile(path, bytes.NewReader(p.Data))
}
