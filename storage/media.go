// Package storage persists uploaded issue media to disk. Files are validated
// by sniffing their actual content, never by trusting the client-supplied
// Content-Type, and multi-file saves are all-or-nothing.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VicegerentPrince/Urban-Eye/models"
)

var (
	// ErrUnsupportedMedia is returned for files that are neither images nor videos.
	ErrUnsupportedMedia = errors.New("only images and videos are allowed")
	// ErrPayloadTooLarge is returned for files exceeding the configured size limit.
	ErrPayloadTooLarge = errors.New("file exceeds the maximum allowed size")
)

// Store writes media files under a single upload directory and serves them
// back as /uploads/<name> URIs.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Save persists a single uploaded file and returns its attachment record.
// The attachment kind is derived from the sniffed MIME type.
func (s *Store) Save(fh *multipart.FileHeader) (models.Attachment, error) {
	if fh.Size > s.maxBytes {
		return models.Attachment{}, ErrPayloadTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return models.Attachment{}, err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return models.Attachment{}, err
	}

	var kind models.AttachmentKind
	switch {
	case strings.HasPrefix(mtype.String(), "image/"):
		kind = models.Photo
	case strings.HasPrefix(mtype.String(), "video/"):
		kind = models.Video
	default:
		return models.Attachment{}, ErrUnsupportedMedia
	}

	// Rewind after sniffing so the whole file gets written.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return models.Attachment{}, err
	}

	name := uuid.NewString() + mtype.Extension()
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return models.Attachment{}, err
	}

	if _, err := io.Copy(dst, f); err != nil {
		dst.Close()
		os.Remove(path)
		return models.Attachment{}, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return models.Attachment{}, err
	}

	return models.Attachment{Kind: kind, URI: "/uploads/" + name}, nil
}

// SaveAll persists every file or none: on any failure the files already
// written for this call are removed before the error is returned, so a retry
// never observes leftovers from a failed first attempt.
func (s *Store) SaveAll(files []*multipart.FileHeader) ([]models.Attachment, error) {
	saved := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		att, err := s.Save(fh)
		if err != nil {
			s.Remove(saved)
			return nil, fmt.Errorf("saving %q: %w", fh.Filename, err)
		}
		saved = append(saved, att)
	}
	return saved, nil
}

// Remove deletes the stored files behind the given attachments. Removal is
// best-effort; missing files are not an error.
func (s *Store) Remove(attachments []models.Attachment) {
	for _, att := range attachments {
		name := strings.TrimPrefix(att.URI, "/uploads/")
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("Failed to remove media file", zap.String("uri", att.URI), zap.Error(err))
		}
	}
}

// Dir returns the directory media files are stored in, for static serving.
func (s *Store) Dir() string {
	return s.dir
}
