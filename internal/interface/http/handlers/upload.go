package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// RosterReader parses a staff spreadsheet. filename selects the format.
type RosterReader func(r io.Reader, filename string) ([]staff.RosterRow, error)

// UploadField is the multipart field carrying uploaded files.
const UploadField = "file"

// Upload is a file received either as multipart form data or as a raw body.
type Upload struct {
	Name string
	Data []byte
}

// ReadUpload extracts a file from r. Multipart requests must carry it in
// the "file" field. Any other body is taken as the file itself, named by
// the ?filename= query parameter or defaultName.
func ReadUpload(r *http.Request, defaultName string) (*Upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(r)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, uploadError(err)
	}
	if len(data) == 0 {
		return nil, shared.NewDomainError("http", "Upload", shared.ErrEmptyValue, "request body is empty")
	}
	name := strings.TrimSpace(r.URL.Query().Get("filename"))
	if name == "" {
		name = defaultName
	}
	return &Upload{Name: filepath.Base(name), Data: data}, nil
}

func readMultipart(r *http.Request) (*Upload, error) {
	file, header, err := r.FormFile(UploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, shared.NewDomainError("http", "Upload", shared.ErrEmptyValue,
				fmt.Sprintf("multipart field %q is missing", UploadField))
		}
		return nil, uploadError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, uploadError(err)
	}
	return &Upload{Name: filepath.Base(header.Filename), Data: data}, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return shared.WrapError("http", "Upload", shared.ErrInvalidInput,
			fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), err)
	}
	return shared.WrapError("http", "Upload", shared.ErrInvalidInput, "could not read upload", err)
}
