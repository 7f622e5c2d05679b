package output

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"tab2md/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Snapshot is a prepared document on local disk for the extraction engine.
type Snapshot struct {
	Path string
	keep bool
	log  *zap.Logger
}

// WriteSnapshot stores html in dir under a unique name. With keep set,
// Remove leaves the file in place.
func WriteSnapshot(dir, html string, keep bool, log *zap.Logger) (*Snapshot, error) {
	log = logger.OrNop(log)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	abs, err := filepath.Abs(filepath.Join(dir, "snapshot-"+uuid.NewString()+".html"))
	if err != nil {
		return nil, fmt.Errorf("resolving snapshot path: %w", err)
	}
	if err := os.WriteFile(abs, []byte(html), 0644); err != nil {
		return nil, fmt.Errorf("writing snapshot %s: %w", abs, err)
	}
	log.Debug("snapshot written", zap.String("path", abs), zap.Int("bytes", len(html)))
	return &Snapshot{Path: abs, keep: keep, log: log}, nil
}

// URI returns the file:// address of the snapshot.
func (s *Snapshot) URI() string {
	p := filepath.ToSlash(s.Path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/x
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// Remove deletes the snapshot unless it is kept. Failures are only logged.
func (s *Snapshot) Remove() {
	if s.keep {
		s.log.Info("snapshot kept", zap.String("path", s.Path))
		return
	}
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove snapshot", zap.String("path", s.Path), zap.Error(err))
	}
}
