package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrUploadTooLarge = errors.New("upload too large")

// UploadStore writes uploaded media into a directory under generated names.
type UploadStore struct {
	dir      string
	maxBytes int64
}

// NewUploadStore limits uploads to maxBytes; 0 means unlimited.
func NewUploadStore(dir string, maxBytes int64) *UploadStore {
	return &UploadStore{dir: dir, maxBytes: maxBytes}
}

func (s *UploadStore) EnsureDir() error {
	return os.MkdirAll(s.dir, 0o755)
}

// Save copies r into a new file and returns its path. The client file name
// only contributes its extension.
func (s *UploadStore) Save(filename string, r io.Reader) (string, error) {
	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, uuid.NewString()+uploadExt(filename))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// Remove deletes a stored upload. A missing file is not an error.
func (s *UploadStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DisplayName returns the base name of a client-supplied file name.
func DisplayName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || strings.TrimSpace(name) == "" {
		return "upload"
	}
	return name
}

// uploadExt keeps short alphanumeric extensions so ffmpeg can still sniff
// the container from the name.
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(DisplayName(filename)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
