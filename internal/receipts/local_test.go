package receipts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DiogoMatos10/myfinance/internal/log"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	logger := log.New(log.DefaultConfig())
	l, err := NewLocal(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	return l
}

func TestStoreWritesFileAndReturnsURL(t *testing.T) {
	l := newTestLocal(t)

	url, err := l.Store(context.Background(), "u1", "receipt.pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasPrefix(url, "/receipts/users/u1/receipts/") {
		t.Fatalf("unexpected url %q", url)
	}
	if !strings.HasSuffix(url, "-receipt.pdf") {
		t.Fatalf("expected timestamp prefix before filename, got %q", url)
	}

	rel := strings.TrimPrefix(url, "/receipts/")
	data, err := os.ReadFile(filepath.Join(l.Dir(), filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Fatalf("stored %q, want %q", data, "pdf-bytes")
	}
}

func TestStoreSanitizesFilename(t *testing.T) {
	l := newTestLocal(t)

	cases := []struct {
		name     string
		filename string
	}{
		{"traversal", "../../etc/passwd"},
		{"empty", ""},
		{"dot", "."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url, err := l.Store(context.Background(), "u1", tc.filename, strings.NewReader("x"))
			if err != nil {
				t.Fatalf("store: %v", err)
			}
			if !strings.HasPrefix(url, "/receipts/users/u1/receipts/") {
				t.Fatalf("filename escaped user directory: %q", url)
			}
			if strings.Contains(url, "..") {
				t.Fatalf("url still contains traversal: %q", url)
			}
		})
	}
}
