package fetcher

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fsnotify/fsnotify"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
	"github.com/andreero0/nestsync-timeline/internal/util"
)

// FileFetcher serves record pages from a local JSONL export, one RawRecord
// per line. Used for offline development and the watch command's demo mode.
// The file is re-read when fsnotify reports a change.
type FileFetcher struct {
	path    string
	watcher *fsnotify.Watcher

	mu      sync.RWMutex
	records []model.RawRecord
	stale   bool
}

// NewFileFetcher opens a JSONL export and starts watching it for changes.
func NewFileFetcher(path string) (*FileFetcher, error) {
	ff := &FileFetcher{path: path, stale: true}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	ff.watcher = watcher

	go ff.processEvents()

	return ff, nil
}

// processEvents marks the cached records stale on any write to the file.
func (ff *FileFetcher) processEvents() {
	for {
		select {
		case event, ok := <-ff.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				util.LogDebugf("Export file changed: %s (%s)", event.Name, event.Op)
				ff.mu.Lock()
				ff.stale = true
				ff.mu.Unlock()
			}

		case err, ok := <-ff.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("Export file monitoring error: " + err.Error())
		}
	}
}

// FetchRecords filters, sorts and slices the export like the remote API
// would: newest first, offset/limit paging.
func (ff *FileFetcher) FetchRecords(ctx context.Context, query Query) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.NetworkError{Op: "fetch records", Err: err}
	}

	records, err := ff.load()
	if err != nil {
		return nil, &model.NetworkError{Op: "read export", Err: err}
	}

	filtered := make([]model.RawRecord, 0, len(records))
	var cutoff time.Time
	if query.DaysBack > 0 {
		cutoff = time.Now().AddDate(0, 0, -query.DaysBack)
	}
	for _, rec := range records {
		if query.ChildID != "" && rec.ChildID != query.ChildID {
			continue
		}
		if query.Kind != "" && !strings.EqualFold(rec.Kind, query.Kind) {
			continue
		}
		if !cutoff.IsZero() {
			ts, err := time.Parse(time.RFC3339, rec.LoggedAt)
			if err == nil && ts.Before(cutoff) {
				continue
			}
		}
		filtered = append(filtered, rec)
	}

	// Newest first; records with unparsable timestamps sink to the end so
	// the normalizer still sees and rejects them.
	sort.SliceStable(filtered, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339, filtered[i].LoggedAt)
		tj, errj := time.Parse(time.RFC3339, filtered[j].LoggedAt)
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return ti.After(tj)
	})

	if query.Offset >= len(filtered) {
		return []model.RawRecord{}, nil
	}
	end := len(filtered)
	if query.Limit > 0 && query.Offset+query.Limit < end {
		end = query.Offset + query.Limit
	}

	page := make([]model.RawRecord, end-query.Offset)
	copy(page, filtered[query.Offset:end])
	return page, nil
}

// load returns the cached records, re-reading the export when stale.
func (ff *FileFetcher) load() ([]model.RawRecord, error) {
	ff.mu.RLock()
	if !ff.stale {
		records := ff.records
		ff.mu.RUnlock()
		return records, nil
	}
	ff.mu.RUnlock()

	ff.mu.Lock()
	defer ff.mu.Unlock()
	if !ff.stale {
		return ff.records, nil
	}

	file, err := os.Open(ff.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []model.RawRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec model.RawRecord
		if err := sonic.Unmarshal([]byte(line), &rec); err != nil {
			util.LogDebugf("Skip invalid JSON line %s:%d - %v", ff.path, lineCount, err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	ff.records = records
	ff.stale = false
	util.LogDebugf("Loaded %d records from %s", len(records), ff.path)
	return records, nil
}

// Close stops watching the export file.
func (ff *FileFetcher) Close() error {
	return ff.watcher.Close()
}
