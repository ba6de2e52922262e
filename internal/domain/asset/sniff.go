package asset

import (
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

// extensions missing from the mime package's built-in table
var mediaExtensions = map[string]string{
	".mov":  "video/quicktime",
	".m4v":  "video/x-m4v",
	".heic": "image/heic",
	".heif": "image/heif",
}

// detectContentType reports the media type of an upload. The content
// signature wins. Unrecognized binary content falls back to the part's
// declared type and then to the file extension.
func detectContentType(head []byte, declared, filename string) string {
	detected := mimetype.Detect(head)
	if !detected.Is("application/octet-stream") {
		return detected.String()
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil && isMediaType(mt) {
		return mt
	}
	ext := strings.ToLower(path.Ext(filename))
	if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil && isMediaType(mt) {
		return mt
	}
	if mt, ok := mediaExtensions[ext]; ok {
		return mt
	}
	return detected.String()
}

func isMediaType(mt string) bool {
	return strings.HasPrefix(mt, "image/") || strings.HasPrefix(mt, "video/")
}
