package validators

import (
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/storage"
)

// multipartMemory is how much of a form is buffered before parts spill to
// temporary files.
const multipartMemory = 8 << 20

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.EqualFold(mediaType, "multipart/form-data")
}

// Form is a parsed multipart request. Close releases opened parts and
// temporary files.
type Form struct {
	req   *http.Request
	files []multipart.File
}

// ParseMultipart parses the form, capping the whole body at
// maxFiles*maxFileBytes plus room for the text fields.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxFiles int, maxFileBytes int64) (*Form, error) {
	if maxFileBytes <= 0 {
		maxFileBytes = storage.MaxFileBytes
	}
	limit := int64(maxFiles)*maxFileBytes + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return &Form{req: r}, nil
}

// Value returns a text field.
func (f *Form) Value(key string) string {
	return f.req.FormValue(key)
}

// Files opens the uploads under field. More than max files is rejected;
// an absent field yields no uploads.
func (f *Form) Files(field string, max int) ([]storage.Upload, error) {
	headers := f.req.MultipartForm.File[field]
	if len(headers) > max {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Too many files").WithDetails(map[string]any{"field": field, "max": max})
	}
	uploads := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
		}
		f.files = append(f.files, file)
		uploads = append(uploads, storage.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        file,
		})
	}
	return uploads, nil
}

func (f *Form) Close() error {
	var err error
	for _, file := range f.files {
		err = multierr.Append(err, file.Close())
	}
	if f.req.MultipartForm != nil {
		err = multierr.Append(err, f.req.MultipartForm.RemoveAll())
	}
	return err
}
