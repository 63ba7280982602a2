package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// photoExts are the file extensions the cache watcher reacts to.
var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
}

// PhotoWatcher watches the local photo cache directory and reports new or
// rewritten photo files as capture mutations, so photos dropped into the
// cache by other tooling still get pushed.
type PhotoWatcher struct {
	watcher *fsnotify.Watcher
	engine  *Engine
	logger  *log.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewPhotoWatcher creates a watcher that feeds capture mutations to engine.
func NewPhotoWatcher(engine *Engine, logger *log.Logger) (*PhotoWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[watcher] ", log.LstdFlags)
	}
	return &PhotoWatcher{
		watcher: w,
		engine:  engine,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching cacheDir. Returns an error if the directory cannot
// be watched or the watcher is already running.
func (pw *PhotoWatcher) Start(cacheDir string) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("watcher already running")
	}
	if err := pw.watcher.Add(cacheDir); err != nil {
		return fmt.Errorf("failed to watch photo cache %s: %w", cacheDir, err)
	}
	pw.running = true

	pw.wg.Add(1)
	go pw.loop()

	pw.logger.Printf("Watching photo cache: %s", cacheDir)
	return nil
}

func (pw *PhotoWatcher) loop() {
	defer pw.wg.Done()

	for {
		select {
		case <-pw.done:
			return

		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			ext := strings.ToLower(filepath.Ext(event.Name))
			if !photoExts[ext] {
				continue
			}
			pw.logger.Printf("Photo cache event: %s %s", event.Op, event.Name)
			pw.engine.NotifyMutation(model.CategoryCaptures)

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.logger.Printf("Watcher error: %v", err)
		}
	}
}

// Stop shuts the watcher down and waits for its goroutine to exit.
func (pw *PhotoWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}
	pw.running = false

	close(pw.done)
	if err := pw.watcher.Close(); err != nil {
		pw.logger.Printf("Error closing watcher: %v", err)
	}
	pw.wg.Wait()
	return nil
}
