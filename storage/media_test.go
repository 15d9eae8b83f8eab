package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VicegerentPrince/Urban-Eye/models"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)

// mp4Bytes carries an ftyp box so content sniffing sees video/mp4.
var mp4Bytes = append([]byte{
	0x00, 0x00, 0x00, 0x1c, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'i', 's', 'o', '2',
	'a', 'v', 'c', '1', 'm', 'p', '4', '1',
}, make([]byte, 32)...)

// fileHeaders round-trips named payloads through a multipart form so the
// store sees the same *multipart.FileHeader values gin hands it.
func fileHeaders(t *testing.T, payloads map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range payloads {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["files"]
}

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), maxBytes)
	require.NoError(t, err)
	return s
}

func storedFiles(t *testing.T, s *Store) []string {
	t.Helper()
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSavePhoto(t *testing.T) {
	s := newTestStore(t, 1<<20)
	fhs := fileHeaders(t, map[string][]byte{"pothole.png": pngBytes})

	att, err := s.Save(fhs[0])
	require.NoError(t, err)
	assert.Equal(t, models.Photo, att.Kind)
	assert.True(t, strings.HasPrefix(att.URI, "/uploads/"))
	assert.True(t, strings.HasSuffix(att.URI, ".png"))

	// The file behind the URI exists.
	name := strings.TrimPrefix(att.URI, "/uploads/")
	data, err := os.ReadFile(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestSaveVideo(t *testing.T) {
	s := newTestStore(t, 1<<20)
	fhs := fileHeaders(t, map[string][]byte{"clip.mp4": mp4Bytes})

	att, err := s.Save(fhs[0])
	require.NoError(t, err)
	assert.Equal(t, models.Video, att.Kind)
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	s := newTestStore(t, 1<<20)
	fhs := fileHeaders(t, map[string][]byte{"notes.txt": []byte("just some text, not media")})

	_, err := s.Save(fhs[0])
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
	assert.Empty(t, storedFiles(t, s))
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	s := newTestStore(t, 16)
	fhs := fileHeaders(t, map[string][]byte{"big.png": pngBytes})

	_, err := s.Save(fhs[0])
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Empty(t, storedFiles(t, s))
}

func TestSaveAllIsAllOrNothing(t *testing.T) {
	s := newTestStore(t, 1<<20)
	fhs := fileHeaders(t, map[string][]byte{
		"a.png":     pngBytes,
		"b.mp4":     mp4Bytes,
		"broken.gz": []byte("not actually media at all"),
	})

	atts, err := s.SaveAll(fhs)
	assert.Error(t, err)
	assert.Nil(t, atts)

	// Nothing from the failed batch survives.
	assert.Empty(t, storedFiles(t, s))
}

func TestSaveAllSuccessAndRemove(t *testing.T) {
	s := newTestStore(t, 1<<20)
	fhs := fileHeaders(t, map[string][]byte{"a.png": pngBytes, "b.mp4": mp4Bytes})

	atts, err := s.SaveAll(fhs)
	require.NoError(t, err)
	assert.Len(t, atts, 2)
	assert.Len(t, storedFiles(t, s), 2)

	s.Remove(atts)
	assert.Empty(t, storedFiles(t, s))
}
