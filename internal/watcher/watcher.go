// Package watcher tails log files and hands newly appended text to a callback.
package watcher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounceDelay = 300 * time.Millisecond

// Watcher watches a fixed set of files and reports text appended to them.
// Parent directories are watched rather than the files themselves so that
// rotation by rename-and-create is picked up.
type Watcher struct {
	fsWatcher *fsnotify.Watcher

	// path -> bytes already delivered
	offsets map[string]int64
	// path -> length of complete lines held back at the last flush
	held map[string]int

	// Debouncing
	debounceDelay time.Duration
	pendingFiles  map[string]struct{}
	pendingMu     sync.Mutex
	debounceTimer *time.Timer

	// deliverMu serialises callbacks and guards offsets.
	deliverMu sync.Mutex

	onChange func(path, text string)
	onError  func(error)

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounceDelay sets how long to wait after the last event before reading.
func WithDebounceDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDelay = d
		}
	}
}

// WithOnError sets the callback for read and fsnotify errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithFromStart delivers each file's existing content on the first read
// instead of only what is appended after New.
func WithFromStart() Option {
	return func(w *Watcher) {
		for p := range w.offsets {
			w.offsets[p] = 0
		}
	}
}

// New creates a watcher for paths. onChange receives the text appended to a
// file since the previous delivery, always ending on a line break. A trailing
// line without a line break is never delivered. The last block of lines is
// delivered once a blank line follows it, or once a further quiet period
// passes with no more lines written. A file that shrinks is treated as
// truncated and read again from the beginning.
func New(paths []string, onChange func(path, text string), opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to watch")
	}
	if onChange == nil {
		return nil, errors.New("onChange callback is required")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher:     fsWatcher,
		offsets:       make(map[string]int64, len(paths)),
		held:          make(map[string]int),
		debounceDelay: defaultDebounceDelay,
		pendingFiles:  make(map[string]struct{}),
		onChange:      onChange,
		done:          make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsWatcher.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.offsets[abs] = fileSize(abs)
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for _, opt := range opts {
		opt(w)
	}

	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			_ = fsWatcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Paths returns the absolute paths being watched, sorted.
func (w *Watcher) Paths() []string {
	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()
	out := make([]string, 0, len(w.offsets))
	for p := range w.offsets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Start begins watching. Files with a zero offset (see WithFromStart) are
// read immediately.
func (w *Watcher) Start() {
	w.pendingMu.Lock()
	for p, off := range w.offsets {
		if off == 0 {
			w.pendingFiles[p] = struct{}{}
		}
	}
	if len(w.pendingFiles) > 0 {
		w.debounceTimer = time.AfterFunc(0, w.flush)
	}
	w.pendingMu.Unlock()

	w.wg.Add(1)
	go w.eventLoop()
}

// Stop stops the watcher and waits for the event loop and any callback in
// progress to return. Changes that have not been delivered yet are dropped.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()

		w.pendingMu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.pendingMu.Unlock()

		// A flush that already fired holds deliverMu while calling onChange;
		// any later one sees done and returns without delivering.
		w.deliverMu.Lock()
		w.deliverMu.Unlock() //nolint:staticcheck // empty critical section drains deliveries
	})
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.deliverMu.Lock()
	_, watched := w.offsets[event.Name]
	if watched && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.offsets[event.Name] = 0
		delete(w.held, event.Name)
	}
	w.deliverMu.Unlock()
	if !watched {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pendingFiles[event.Name] = struct{}{}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flush)
}

// flush reads every pending file after the debounce delay. Files with lines
// held back are queued for another pass.
func (w *Watcher) flush() {
	w.pendingMu.Lock()
	files := make([]string, 0, len(w.pendingFiles))
	for f := range w.pendingFiles {
		files = append(files, f)
	}
	w.pendingFiles = make(map[string]struct{})
	w.pendingMu.Unlock()

	sort.Strings(files)
	w.schedule(w.deliver(files))
}

func (w *Watcher) deliver(files []string) (recheck []string) {
	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()
	for _, path := range files {
		select {
		case <-w.done:
			return nil
		default:
		}
		pending, start, err := readFrom(path, w.offsets[path])
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				w.reportError(err)
			}
			continue
		}
		if start != w.offsets[path] {
			delete(w.held, path)
		}

		text := w.releasable(path, pending)
		w.offsets[path] = start + int64(len(text))
		if strings.TrimSpace(text) != "" {
			w.onChange(path, text)
		}
		if _, ok := w.held[path]; ok {
			recheck = append(recheck, path)
		}
	}
	return recheck
}

// releasable returns the prefix of pending that can be delivered now and
// records what is held back for the next pass.
func (w *Watcher) releasable(path, pending string) string {
	complete := pending[:strings.LastIndexByte(pending, '\n')+1]

	text := complete[:lastBlockEnd(complete)]
	if prev, ok := w.held[path]; ok && prev == len(complete) && len(complete) == len(pending) {
		// Nothing was written since the previous pass.
		text = complete
	}

	if rest := len(complete) - len(text); rest > 0 {
		w.held[path] = rest
	} else {
		delete(w.held, path)
	}
	return text
}

// schedule queues paths for another flush after the debounce delay.
func (w *Watcher) schedule(paths []string) {
	if len(paths) == 0 {
		return
	}
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	for _, p := range paths {
		w.pendingFiles[p] = struct{}{}
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flush)
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// lastBlockEnd returns the offset just past the last blank line in text, or 0.
// text is expected to end with a line break.
func lastBlockEnd(text string) int {
	end := 0
	for i := 0; i < len(text); {
		j := strings.IndexByte(text[i:], '\n')
		if j < 0 {
			break
		}
		line := text[i : i+j]
		i += j + 1
		if strings.TrimSpace(line) == "" {
			end = i
		}
	}
	return end
}

// readFrom returns the content of path past offset and the offset it was read
// from, which is 0 when the file was truncated.
func readFrom(path string, offset int64) (string, int64, error) {
	f, err := os.Open(path) //nolint:gosec // G304: watched paths are explicit CLI arguments
	if err != nil {
		return "", offset, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", offset, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", offset, fmt.Errorf("seek %s: %w", path, err)
	}
	b, err := io.ReadAll(f)
	if err != nil {
		return "", offset, fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), offset, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
