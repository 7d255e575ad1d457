package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedType = errors.New("unsupported report file type")
	ErrTooLarge        = errors.New("report file too large")
	ErrEmptyFile       = errors.New("report file is empty")
	ErrInvalidRef      = errors.New("invalid report reference")
)

// sniffLen matches the amount of header mimetype inspects by default.
const sniffLen = 3072

var allowedTypes = []string{"application/pdf", "image/png", "image/jpeg"}

// DiskStore keeps report files under a root directory, one folder per
// booking. References are paths relative to the root.
type DiskStore struct {
	root     string
	maxBytes int64
	log      *zap.Logger
}

func NewDiskStore(root string, maxBytes int64, log *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create report dir %s: %w", root, err)
	}

	return &DiskStore{
		root:     root,
		maxBytes: maxBytes,
		log:      log.With(zap.String("component", "artifact_store")),
	}, nil
}

// Save sniffs the content type from the first bytes rather than trusting the
// client's filename, then writes the file under a generated name.
func (s *DiskStore) Save(ctx context.Context, bookingID uuid.UUID, filename string, r io.Reader) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read report: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", ErrEmptyFile
	}

	mtype := mimetype.Detect(head)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		s.log.Warn("Rejected report upload",
			zap.String("booking_id", bookingID.String()),
			zap.String("filename", filename),
			zap.String("detected", mtype.String()),
		)
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	dir := filepath.Join(s.root, bookingID.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create booking dir: %w", err)
	}

	ref := filepath.ToSlash(filepath.Join(bookingID.String(), uuid.NewString()+mtype.Extension()))
	path := filepath.Join(s.root, filepath.FromSlash(ref))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	if s.maxBytes > 0 {
		body = io.LimitReader(body, s.maxBytes+1)
	}

	written, err := io.Copy(f, &ctxReader{ctx: ctx, r: body})
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write report: %w", err)
	}

	s.log.Info("Report stored",
		zap.String("booking_id", bookingID.String()),
		zap.String("ref", ref),
		zap.String("content_type", mtype.String()),
		zap.Int64("bytes", written),
	)

	return ref, nil
}

func (s *DiskStore) Open(_ context.Context, ref string) (io.ReadCloser, string, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, "", err
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("detect report type: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open report: %w", err)
	}

	return f, mtype.String(), nil
}

func (s *DiskStore) Delete(_ context.Context, ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// resolve maps a reference back to a path, refusing anything that would
// escape the root.
func (s *DiskStore) resolve(ref string) (string, error) {
	if ref == "" || filepath.IsAbs(ref) {
		return "", ErrInvalidRef
	}

	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidRef
	}

	return filepath.Join(s.root, clean), nil
}

// ctxReader stops a long copy once the request is gone.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
