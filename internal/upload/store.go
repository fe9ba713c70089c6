// Package upload stores avatar bytes on disk and hands back a stable
// reference. The core only ever sees the reference; the validation
// contract (extension whitelist, size cap) lives here.
package upload

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeojw/kampung/internal/auth"
)

// MaxAvatarBytes caps uploads at 2 MiB; larger payloads get a
// dedicated signal so the boundary can answer 413.
const MaxAvatarBytes = 2 << 20

// ErrTooLarge is returned for payloads over MaxAvatarBytes.
var ErrTooLarge = errors.New("payload too large")

// ErrBadType is returned for extensions or MIME types outside the
// whitelist.
var ErrBadType = errors.New("unsupported image type")

var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Store writes avatars under Dir with random hex names.
type Store struct{ Dir string }

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

// Save validates and stores raw image bytes, returning the stable
// reference used in the avatar_ref column.
func (s *Store) Save(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrBadType
	}
	if len(data) > MaxAvatarBytes {
		return "", ErrTooLarge
	}
	name, err := auth.NewRawToken()
	if err != nil {
		return "", err
	}
	name += ext
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", err
	}
	return "uploads/" + name, nil
}

// SaveDataURL stores a base64 data-URL avatar produced by the crop
// flow, under the same size and type contract as Save.
func (s *Store) SaveDataURL(dataURL string) (string, error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return "", ErrBadType
	}
	header, encoded, ok := strings.Cut(dataURL, ",")
	if !ok {
		return "", ErrBadType
	}
	var ext string
	switch {
	case strings.Contains(header, "image/png"):
		ext = ".png"
	case strings.Contains(header, "image/jpeg"), strings.Contains(header, "image/jpg"):
		ext = ".jpg"
	case strings.Contains(header, "image/webp"):
		ext = ".webp"
	default:
		return "", ErrBadType
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrBadType
	}
	return s.Save("avatar"+ext, raw)
}
