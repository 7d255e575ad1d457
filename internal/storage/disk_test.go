package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var pdfBody = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func newStore(t *testing.T, max int64) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), max, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return store
}

func TestSaveOpenDelete(t *testing.T) {
	store := newStore(t, 1<<20)
	ctx := context.Background()
	bookingID := uuid.New()

	ref, err := store.Save(ctx, bookingID, "report.pdf", bytes.NewReader(pdfBody))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(ref, bookingID.String()+"/") || !strings.HasSuffix(ref, ".pdf") {
		t.Errorf("unexpected ref %q", ref)
	}

	rc, contentType, err := store.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, pdfBody) {
		t.Errorf("content mismatch")
	}
	if contentType != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", contentType)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := store.Open(ctx, ref); err == nil {
		t.Errorf("Open after Delete succeeded")
	}
	if err := store.Delete(ctx, ref); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	store := newStore(t, 1<<20)

	_, err := store.Save(context.Background(), uuid.New(), "report.pdf", strings.NewReader("just some plain text"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestSaveRejectsEmptyFile(t *testing.T) {
	store := newStore(t, 1<<20)

	_, err := store.Save(context.Background(), uuid.New(), "report.pdf", bytes.NewReader(nil))
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("err = %v, want ErrEmptyFile", err)
	}
}

func TestSaveEnforcesSizeLimit(t *testing.T) {
	store := newStore(t, 64)

	body := append(append([]byte{}, pdfBody...), bytes.Repeat([]byte("0"), 128)...)
	_, err := store.Save(context.Background(), uuid.New(), "report.pdf", bytes.NewReader(body))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	store := newStore(t, 0)

	for _, ref := range []string{"", ".", "..", "../etc/passwd", "/etc/passwd", "a/../../b"} {
		if _, err := store.resolve(ref); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("resolve(%q) err = %v, want ErrInvalidRef", ref, err)
		}
	}

	if _, err := store.resolve(uuid.NewString() + "/x.pdf"); err != nil {
		t.Errorf("valid ref rejected: %v", err)
	}
}
