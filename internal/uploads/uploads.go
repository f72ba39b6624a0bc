package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Store keeps product images on local disk under one directory. Files are
// referenced everywhere else by their public path, /uploads/<name>.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload directory")
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory images are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes one uploaded file under a unique name and returns its public
// path.
func (s *Store) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	name := fmt.Sprintf("%d_%s_%s", time.Now().UnixMilli(), uuid.New().String()[:8], sanitize(file.Filename))
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", errors.Wrap(err, "create image file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "write image file")
	}
	return "/uploads/" + name, nil
}

// SaveAll stores every file; if one fails, the ones already written are
// removed again.
func (s *Store) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p, err := s.Save(f)
		if err != nil {
			s.Remove(paths)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Remove deletes stored images by their public paths. Missing files are not
// an error.
func (s *Store) Remove(paths []string) {
	for _, p := range paths {
		name := path.Base(p)
		if name == "." || name == "/" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			log.WithError(err).WithField("image", p).Warn("failed to remove image file")
		}
	}
}

func sanitize(name string) string {
	return strings.ReplaceAll(filepath.Base(name), " ", "_")
}
