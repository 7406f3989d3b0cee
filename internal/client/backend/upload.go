package backend

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Upload is an image file that passed the client-side pre-check.
type Upload struct {
	Filename    string
	ContentType string
	data        []byte
}

// NewUpload reads the file and checks it before any backend call: it must
// not be empty or larger than maxBytes, its sniffed content must be an image,
// and so must its declared type when the browser sent a specific one.
func NewUpload(filename, declaredType string, r io.Reader, maxBytes int64) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	detected := mimetype.Detect(data)
	if !isImageType(detected.String()) {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, detected.String())
	}
	if declared := strings.TrimSpace(declaredType); declared != "" && declared != "application/octet-stream" &&
		!isImageType(declared) {
		return nil, fmt.Errorf("%w: declared %s", ErrNotImage, declared)
	}

	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" {
		name = "image" + detected.Extension()
	}

	return &Upload{Filename: name, ContentType: detected.String(), data: data}, nil
}

// Size returns the number of bytes in the file.
func (u *Upload) Size() int {
	return len(u.data)
}

func (u *Upload) writePart(w *multipart.Writer, field string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": u.Filename,
	}))
	header.Set("Content-Type", u.ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to prepare upload: %w", err)
	}
	if _, err = io.Copy(part, bytes.NewReader(u.data)); err != nil {
		return fmt.Errorf("failed to write upload: %w", err)
	}

	return nil
}

func isImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
