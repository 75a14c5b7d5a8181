package dev

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeCreated ChangeType = iota
	ChangeModified
	ChangeRemoved
)

// String returns the change type name.
func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories to watch.
	Paths []string

	// Ignore lists path segments or segment runs to skip, such as
	// "Drafts" or "archive/old". Globs are allowed within a segment.
	Ignore []string

	// Interval is the polling interval.
	Interval time.Duration
}

// DefaultIgnore contains default patterns to ignore. These are editor and
// VCS droppings that never name a page.
var DefaultIgnore = []string{
	".git",
	".DS_Store",
	"*.tmp",
	"*.swp",
	"*.swx",
	"*~",
	"#*#",
}

// fileState is what the watcher remembers per file. Size catches writes
// that land within the file system's timestamp granularity.
type fileState struct {
	modTime time.Time
	size    int64
}

// Watcher polls directories for file changes.
type Watcher struct {
	config   WatcherConfig
	onChange func([]Change)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	files    map[string]fileState
	ignore   []ignoreRule
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval == 0 {
		config.Interval = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}

	return &Watcher{
		config: config,
		files:  make(map[string]fileState),
		ignore: compileIgnore(config.Ignore),
	}
}

// OnChange sets the callback for file changes. It receives every change
// found by one poll, sorted by path.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls for file changes until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	stopCh := make(chan struct{})
	w.stopCh = stopCh
	w.mu.Unlock()

	// Initialize state
	w.mu.Lock()
	w.files = w.scan()
	w.mu.Unlock()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// Poll compares the watched paths against the last poll and reports the
// differences. Start calls it on every tick.
func (w *Watcher) Poll() []Change {
	current := w.scan()

	w.mu.Lock()
	previous := w.files
	w.files = current
	callback := w.onChange
	w.mu.Unlock()

	var changes []Change
	for p, state := range current {
		old, ok := previous[p]
		switch {
		case !ok:
			changes = append(changes, Change{Path: p, Type: ChangeCreated})
		case !state.modTime.Equal(old.modTime) || state.size != old.size:
			changes = append(changes, Change{Path: p, Type: ChangeModified})
		}
	}
	for p := range previous {
		if _, ok := current[p]; !ok {
			changes = append(changes, Change{Path: p, Type: ChangeRemoved})
		}
	}

	if len(changes) == 0 {
		return nil
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})

	if callback != nil {
		callback(changes)
	}
	return changes
}

// scan walks the watched paths and records every file not ignored.
func (w *Watcher) scan() map[string]fileState {
	files := make(map[string]fileState)
	for _, root := range w.config.Paths {
		filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if p != root && w.shouldIgnore(p) {
					return filepath.SkipDir
				}
				return nil
			}
			if !w.shouldIgnore(p) {
				files[p] = fileState{modTime: info.ModTime(), size: info.Size()}
			}
			return nil
		})
	}
	return files
}

// ignoreRule is one compiled Ignore pattern. Patterns without a slash match
// a single path segment; patterns with one match a run of segments. Either
// may use path.Match globs.
type ignoreRule struct {
	segments []string
}

func compileIgnore(patterns []string) []ignoreRule {
	rules := make([]ignoreRule, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(filepath.ToSlash(p))
		if segs := splitSegments(p); len(segs) > 0 {
			rules = append(rules, ignoreRule{segments: segs})
		}
	}
	return rules
}

// matches reports whether the rule matches any run of consecutive segments.
func (r ignoreRule) matches(segs []string) bool {
	for i := 0; i+len(r.segments) <= len(segs); i++ {
		if r.matchesAt(segs[i:]) {
			return true
		}
	}
	return false
}

func (r ignoreRule) matchesAt(segs []string) bool {
	for j, pattern := range r.segments {
		if ok, _ := path.Match(pattern, segs[j]); !ok {
			return false
		}
	}
	return true
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	segs := splitSegments(filepath.ToSlash(fullPath))
	for _, rule := range w.ignore {
		if rule.matches(segs) {
			return true
		}
	}
	return false
}

func splitSegments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			segs = append(segs, s)
		}
	}
	return segs
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
