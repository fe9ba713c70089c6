package upload

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSave(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("me.PNG", []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "uploads/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	// The bytes landed under the store directory.
	data, err := os.ReadFile(filepath.Join(s.Dir, strings.TrimPrefix(ref, "uploads/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestSaveRejectsBadExtension(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"avatar.gif", "avatar.svg", "script.sh", "noext"} {
		_, err := s.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrBadType, name)
	}
}

func TestSaveRejectsOversize(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("big.jpg", make([]byte, MaxAvatarBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSaveDataURL(t *testing.T) {
	s := newTestStore(t)
	encoded := base64.StdEncoding.EncodeToString([]byte("cropped-bytes"))

	ref, err := s.SaveDataURL("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))
}

func TestSaveDataURLRejectsGarbage(t *testing.T) {
	s := newTestStore(t)
	cases := []string{
		"not a data url",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/gif;base64,aGVsbG8=",
		"data:image/png;base64,%%%not-base64%%%",
	}
	for _, in := range cases {
		_, err := s.SaveDataURL(in)
		assert.ErrorIs(t, err, ErrBadType, in)
	}
}
