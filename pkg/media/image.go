package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageBytes caps avatar and thumbnail uploads.
const MaxImageBytes = 5 << 20

var (
	ErrTooLarge        = errors.New("file exceeds the 5MB limit")
	ErrUnsupportedType = errors.New("only jpeg, png, gif and webp images are accepted")
	ErrEmptyFile       = errors.New("file is empty")
)

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Image is an upload whose type was detected from its content.
type Image struct {
	Data      []byte
	MIME      string
	Extension string
}

// ReadImage reads a multipart file and checks its size and sniffed content type.
// The client-declared Content-Type is ignored.
func ReadImage(fh *multipart.FileHeader) (Image, error) {
	if fh.Size > MaxImageBytes {
		return Image{}, ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return Image{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read upload: %w", err)
	}
	return DetectImage(data)
}

// DetectImage validates raw bytes as an accepted image type.
func DetectImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyFile
	}
	if len(data) > MaxImageBytes {
		return Image{}, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	for _, allowed := range imageTypes {
		if mt.Is(allowed) {
			return Image{Data: data, MIME: allowed, Extension: mt.Extension()}, nil
		}
	}
	return Image{}, ErrUnsupportedType
}

// ObjectPath builds folder/owner/<random>.<ext> so replaced images never collide with cached copies.
func ObjectPath(folder, owner string, img Image) string {
	return path.Join(folder, owner, uuid.NewString()+img.Extension)
}
