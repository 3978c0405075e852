package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/bridgeclient"
)

// readyPollInterval backs the poll fallback; some filesystems (network
// mounts, overlayfs) deliver no inotify events.
const readyPollInterval = 100 * time.Millisecond

// watchReadyFile waits until the host writes its banner to path. The
// bridge writes the file atomically (temp + rename), so a successful read
// always sees a complete banner.
func watchReadyFile(path string, timeout time.Duration) (*bridgeclient.Banner, error) {
	// The file may already be there from a fast host.
	if banner, err := bridgeclient.ReadBannerFile(path); err == nil {
		return banner, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("launcher: fsnotify: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	os.MkdirAll(dir, 0700)
	if err := watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("launcher: watch %s: %w", dir, err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(readyPollInterval)
	defer poll.Stop()

	for {
		select {
		case event := <-watcher.Events:
			if event.Name != path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if banner, err := bridgeclient.ReadBannerFile(path); err == nil {
				return banner, nil
			}
		case <-poll.C:
			if banner, err := bridgeclient.ReadBannerFile(path); err == nil {
				return banner, nil
			}
		case err := <-watcher.Errors:
			return nil, fmt.Errorf("launcher: watch error: %w", err)
		case <-deadline.C:
			return nil, fmt.Errorf("launcher: ready file %s not written within %v", path, timeout)
		}
	}
}
