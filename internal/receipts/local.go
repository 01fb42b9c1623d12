// Package receipts stores uploaded attachments on the local filesystem.
// It backs the sqlite deployment, where no object storage is available;
// the HTTP layer serves the directory under /receipts/.
package receipts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DiogoMatos10/myfinance/internal/log"
)

type Local struct {
	dir    string
	logger *log.Logger
	now    func() time.Time
}

func NewLocal(dir string, logger *log.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}
	return &Local{
		dir:    dir,
		logger: logger.WithComponent(log.ComponentReceipts),
		now:    time.Now,
	}, nil
}

// Store writes the attachment under users/{userID}/receipts/ with a
// timestamp prefix and returns the URL path it will be served from.
func (l *Local) Store(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%d-%s", l.now().UnixMilli(), sanitize(filename))
	rel := filepath.Join("users", userID, "receipts", name)

	full := filepath.Join(l.dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create receipt file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write receipt: %w", err)
	}

	url := "/receipts/" + filepath.ToSlash(rel)
	l.logger.InfoContext(ctx, "receipt stored",
		log.FieldUserID, userID,
		log.FieldReceiptURL, url)
	return url, nil
}

// Dir returns the root the HTTP layer should serve.
func (l *Local) Dir() string {
	return l.dir
}

// sanitize strips path separators so a crafted filename cannot escape the
// user's receipt directory.
func sanitize(filename string) string {
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, string(os.PathSeparator), "_")
	if filename == "." || filename == ".." || filename == "" {
		return "receipt"
	}
	return filename
}
