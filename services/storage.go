package services

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ImageStore keeps uploaded post images on disk under random names, so an
// uploaded filename never collides with or overwrites another.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ImageStore{dir: dir}, nil
}

// Save writes the image and returns the stored name. The original name
// contributes only its extension.
func (s *ImageStore) Save(src io.Reader, originalName string) (string, error) {
	name := uuid.NewString() + filepath.Ext(originalName)

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return name, nil
}

// Path resolves a stored name to its path on disk. The name is reduced to
// its base to keep requests from walking out of the upload directory.
func (s *ImageStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Delete removes a stored image. Deleting a name that is already gone is
// not an error.
func (s *ImageStore) Delete(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(s.Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
