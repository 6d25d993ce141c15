package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"polybars/internal/model"
	"polybars/internal/saver"
	"polybars/internal/session"
)

// Store maps (SeriesKey, year) to a file under root and validates it.
type Store struct {
	root  string
	codec saver.Codec
}

// NewStore uses codec for every segment it writes.
func NewStore(root string, codec saver.Codec) *Store {
	if codec == nil {
		codec = saver.CSVSaver{Compress: true}
	}
	return &Store{root: root, codec: codec}
}

// Root returns the cache directory.
func (s *Store) Root() string { return s.root }

// Path returns the segment path for key and year.
func (s *Store) Path(key SeriesKey, year int) string {
	return filepath.Join(s.root, key.segmentName(year, s.codec.Extension()))
}

// Check holds the current-year rules for Lookup. The zero value validates a
// past-year segment: presence, non-zero size, decodable content.
type Check struct {
	Current   bool      // segment is for the current calendar year
	TradeDate time.Time // Eastern date of the current session
	Until     time.Time // when non-zero, bars are needed up to this instant
}

// Lookup validates the segment at path. A stale segment is deleted.
// Callers hold the cache lock.
func (s *Store) Lookup(path string, chk Check) Lookup {
	st, err := os.Stat(path)
	if err != nil {
		return Miss{Reason: NotFound, Err: err}
	}
	if st.Size() == 0 {
		return Miss{Reason: Empty}
	}
	mtime := st.ModTime()
	if chk.Current && model.Date(mtime.In(session.Eastern())).Before(model.Date(chk.TradeDate.In(session.Eastern()))) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Miss{Reason: Stale, Err: err}
		}
		return Miss{Reason: Stale}
	}
	bars, err := s.Read(path)
	if err != nil {
		return Miss{Reason: Corrupt, Err: err}
	}
	if chk.Current && !chk.Until.IsZero() && len(bars) > 0 {
		last := bars[len(bars)-1].Time
		if last.Before(chk.Until) && mtime.Before(chk.Until) {
			return Miss{Reason: TooShort}
		}
	}
	return Hit{Bars: bars}
}

// Read decodes a segment.
func (s *Store) Read(path string) ([]model.Bar, error) {
	bars, err := s.codec.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSegmentCorrupt, filepath.Base(path), err)
	}
	return bars, nil
}

// Write replaces the segment at path through a temp file and rename, so
// lock-free readers never observe a partial file.
func (s *Store) Write(path string, bars []model.Bar) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	// CreateTemp makes 0600; segments are shared with other users of the root
	if err := tmpFile.Chmod(0o644); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	tmpFile.Close()

	if err := s.codec.Save(bars, tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Remove deletes segments of ticker ("all" for every segment) and returns their
// file names, sorted. Callers hold the cache lock.
func (s *Store) Remove(ticker string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}
	all := strings.EqualFold(strings.TrimSpace(ticker), "all")
	prefix := Prefix(ticker)
	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == LockFileName || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if !all && !ownedBy(name, prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	sort.Strings(removed)
	return removed, nil
}

// ownedBy matches <prefix><span>.…, so clearing BRK leaves BRK.B alone.
func ownedBy(name, prefix string) bool {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return false
	}
	span, _, _ := strings.Cut(rest, ".")
	_, err := model.ParseSpan(span)
	return err == nil
}
