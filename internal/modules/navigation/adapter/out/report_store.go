package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	navout "storefront/internal/modules/navigation/port/out"
	"storefront/internal/platform/clock"
	"storefront/internal/platform/markdown"
)

const maxReportAttempts = 100

// FileReportStore writes markdown reports under {dataDir}/reports.
type FileReportStore struct {
	dir   string
	clock clock.Clock
}

func NewFileReportStore(dataDir string, clk clock.Clock) navout.ReportStore {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &FileReportStore{dir: filepath.Join(dataDir, "reports"), clock: clk}
}

// Save writes a new report file. Names carry the UTC time to the
// millisecond; a name already taken gets a numeric suffix, so earlier
// reports are never overwritten.
func (s *FileReportStore) Save(_ context.Context, meta map[string]any, body string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	rendered, err := markdown.RenderFrontmatter(meta, body)
	if err != nil {
		return "", err
	}

	now := s.clock.Now().UTC()
	base := fmt.Sprintf("navigation-%s-%03d", now.Format("20060102-150405"), now.Nanosecond()/int(time.Millisecond))
	for attempt := 1; attempt <= maxReportAttempts; attempt++ {
		name := base + ".md"
		if attempt > 1 {
			name = fmt.Sprintf("%s-%d.md", base, attempt)
		}
		path := filepath.Join(s.dir, name)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create report: %w", err)
		}
		if _, err := file.WriteString(rendered); err != nil {
			_ = file.Close()
			return "", fmt.Errorf("write report: %w", err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("close report: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("create report: %d files named %s already exist", maxReportAttempts, base)
}
