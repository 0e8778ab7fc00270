package upload

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/huxley-dev/account-be/internal/httpx"
	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 5 << 20

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store saves uploaded profile images under <dir>/profiles and hands the
// public path to downstream handlers.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

type contextKey string

const storedPathKey = contextKey("storedUploadPath")

// PathFromContext returns the public path of the image stored by Single,
// if the request carried one.
func PathFromContext(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(storedPathKey).(string)
	return p, ok
}

// Single returns middleware that accepts one image file from the named
// multipart field. Non-multipart requests, and multipart requests without
// the field, pass through untouched.
func (s *Store) Single(field string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if ct != "multipart/form-data" {
				next.ServeHTTP(w, r)
				return
			}

			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				httpx.Fail(w, http.StatusBadRequest, "Invalid multipart form")
				return
			}

			file, header, err := r.FormFile(field)
			if err != nil {
				// Field absent: a multipart registration without an image.
				next.ServeHTTP(w, r)
				return
			}
			defer file.Close()

			ext := strings.ToLower(filepath.Ext(header.Filename))
			if !imageExts[ext] {
				httpx.Fail(w, http.StatusBadRequest, "Only image files are allowed")
				return
			}
			if header.Size > maxUploadBytes {
				httpx.Fail(w, http.StatusBadRequest, "Image must be smaller than 5 MB")
				return
			}

			name := uuid.New().String() + ext
			profileDir := filepath.Join(s.dir, "profiles")
			if err := os.MkdirAll(profileDir, 0755); err != nil {
				log.Error().Err(err).Msg("Failed to create upload directory")
				httpx.ServerError(w, "Server error during upload", err)
				return
			}

			dst, err := os.Create(filepath.Join(profileDir, name))
			if err != nil {
				log.Error().Err(err).Msg("Failed to create uploaded file")
				httpx.ServerError(w, "Server error during upload", err)
				return
			}
			defer dst.Close()

			if _, err := io.Copy(dst, file); err != nil {
				log.Error().Err(err).Msg("Failed to write uploaded file")
				httpx.ServerError(w, "Server error during upload", err)
				return
			}

			ctx := context.WithValue(r.Context(), storedPathKey, "/uploads/profiles/"+name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
