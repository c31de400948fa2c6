package evidence

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
)

// ErrTooLargeToInline is returned when the file store failed and the upload
// exceeds the inline limit. Callers skip the file.
var ErrTooLargeToInline = errors.New("evidence file too large to inline")

type Options struct {
	Root           string
	PublicBaseURL  string
	MaxInlineBytes int64
}

// FileStore writes evidence under Root/<car_id>/<unix_ms>_<name>. When the
// write fails, small files are returned as inline data URLs instead.
type FileStore struct {
	opts Options
	now  func() time.Time
}

var _ ports.EvidenceStore = (*FileStore)(nil)

func NewFileStore(opts Options) *FileStore {
	return &FileStore{opts: opts, now: time.Now}
}

func (s *FileStore) Put(ctx context.Context, carID string, upload ports.EvidenceUpload) (qms.EvidenceFile, error) {
	if ctx == nil {
		return qms.EvidenceFile{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return qms.EvidenceFile{}, errs.Wrap(err, "check context")
	}

	name := cleanName(upload.Name)
	if name == "" {
		return qms.EvidenceFile{}, errors.New("evidence file name is required")
	}
	car := cleanName(carID)
	if car == "" {
		return qms.EvidenceFile{}, errors.New("car id is required")
	}

	contentType := strings.TrimSpace(upload.ContentType)
	if contentType == "" {
		contentType = http.DetectContentType(upload.Data)
	}
	file := qms.EvidenceFile{Name: name, Size: int64(len(upload.Data)), Type: contentType}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "evidence.filestore"),
		slog.String("car_id", car),
		slog.String("file", name),
	)

	rel, err := s.write(car, name, upload.Data)
	if err == nil {
		file.URL = s.publicURL(rel)
		return file, nil
	}

	if s.opts.MaxInlineBytes <= 0 || file.Size > s.opts.MaxInlineBytes {
		logging.Warn(logCtx, "evidence store failed, file skipped", slog.Int64("size", file.Size), slog.Any("err", errs.Loggable(err)))
		return qms.EvidenceFile{}, fmt.Errorf("%w: %s (%d bytes): %v", ErrTooLargeToInline, name, file.Size, err)
	}

	logging.Warn(logCtx, "evidence store failed, inlining file", slog.Int64("size", file.Size), slog.Any("err", errs.Loggable(err)))
	file.URL = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(upload.Data)
	file.Inline = true
	return file, nil
}

func (s *FileStore) write(carID string, name string, data []byte) (string, error) {
	if strings.TrimSpace(s.opts.Root) == "" {
		return "", errors.New("evidence root is not configured")
	}
	dir := filepath.Join(s.opts.Root, carID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Wrap(err, "create evidence dir")
	}
	fileName := fmt.Sprintf("%d_%s", s.now().UnixMilli(), name)
	if err := os.WriteFile(filepath.Join(dir, fileName), data, 0o644); err != nil {
		return "", errs.Wrap(err, "write evidence file")
	}
	return path.Join(carID, fileName), nil
}

func (s *FileStore) publicURL(rel string) string {
	base := strings.TrimRight(strings.TrimSpace(s.opts.PublicBaseURL), "/")
	if base == "" {
		return "file://" + filepath.ToSlash(filepath.Join(s.opts.Root, filepath.FromSlash(rel)))
	}
	parts := strings.Split(rel, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return base + "/" + strings.Join(parts, "/")
}

// cleanName keeps only the base name and drops path separators.
func cleanName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
