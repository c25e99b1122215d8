package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
)

// follower reads a capture file that another process keeps appending to.
// At end of file it waits for the next write instead of returning io.EOF.
type follower struct {
	ctx     context.Context
	file    *os.File
	watcher *fsnotify.Watcher
}

// OpenFollow opens path for tailing. The returned reader ends when ctx is
// done or the reader is closed.
func OpenFollow(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		f.Close()
		return nil, fmt.Errorf("watch capture %s: %w", path, err)
	}
	return &follower{ctx: ctx, file: f, watcher: watcher}, nil
}

func (fl *follower) Read(p []byte) (int, error) {
	for {
		n, err := fl.file.Read(p)
		if n > 0 || (err != nil && !errors.Is(err, io.EOF)) {
			return n, err
		}

		select {
		case <-fl.ctx.Done():
			return 0, io.EOF

		case event, ok := <-fl.watcher.Events:
			if !ok {
				return 0, io.EOF
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				return 0, io.EOF
			}
			// Write and Chmod both mean "try reading again".

		case _, ok := <-fl.watcher.Errors:
			if !ok {
				return 0, io.EOF
			}
			// Watcher errors are non-fatal; keep following.
		}
	}
}

func (fl *follower) Close() error {
	werr := fl.watcher.Close()
	ferr := fl.file.Close()
	return errors.Join(werr, ferr)
}
