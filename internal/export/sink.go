package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bilgisen/newsinsight/internal/utils"
)

// FileName is the download name of an export taken at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("NewsInsight_%d.png", now.UnixMilli())
}

// Sink stores a finished export somewhere besides the HTTP download
type Sink interface {
	Name() string
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// LocalSink writes exports below a base directory in dated folders
type LocalSink struct {
	basePath string
	now      func() time.Time
	mu       sync.Mutex
}

func NewLocalSink(basePath string) (*LocalSink, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &LocalSink{basePath: basePath, now: time.Now}, nil
}

func (s *LocalSink) Name() string { return "local" }

// Save writes data as YYYY/MM/DD/name with a .sha256 file next to it and
// returns the path of the image.
func (s *LocalSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	datePath := filepath.Join(s.basePath, s.now().Format("2006/01/02"))
	if err := os.MkdirAll(datePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %w", err)
	}

	filePath := filepath.Join(datePath, filepath.Base(name))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	sum := utils.HashBytes(data) + "  " + filepath.Base(name) + "\n"
	if err := os.WriteFile(filePath+".sha256", []byte(sum), 0644); err != nil {
		return "", fmt.Errorf("failed to write export checksum: %w", err)
	}
	return filePath, nil
}
