package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"BillsMonitor/internal/domain"
	"BillsMonitor/internal/ports"
)

// FileLedger keeps processed bill ids as a JSON array in a single file.
type FileLedger struct {
	path string
}

var _ ports.Ledger = (*FileLedger)(nil)

// NewFileLedger points the ledger at path.
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

// Load returns the stored ids. A missing file is an empty ledger; a corrupt one yields an
// empty set together with the decode error.
func (l *FileLedger) Load(_ context.Context) (domain.SeenSet, error) {
	raw, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewSeenSet(), nil
	}
	if err != nil {
		return domain.NewSeenSet(), fmt.Errorf("read ledger %s: %w", l.path, err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.NewSeenSet(), nil
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return domain.NewSeenSet(), fmt.Errorf("decode ledger %s: %w", l.path, err)
	}

	return domain.NewSeenSet(ids...), nil
}

// Save replaces the file with the full set. The data goes to a temp file in the same
// directory first and is renamed over the ledger, so a crash leaves the old file intact.
func (l *FileLedger) Save(_ context.Context, seen domain.SeenSet) error {
	payload, err := json.MarshalIndent(seen.IDs(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	payload = append(payload, '\n')

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp ledger: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp ledger: %w", err)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace ledger %s: %w", l.path, err)
	}

	return nil
}
