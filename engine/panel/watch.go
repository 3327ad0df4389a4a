package panel

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/fsnotify/fsnotify"
)

func (p *panel) Watch(path string) error {
	file, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.watcher != nil {
		p.mu.Unlock()
		return ErrAlreadyWatching
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		p.mu.Unlock()
		return err
	}
	// Editors often replace files instead of writing them, so watch the directory.
	if err := w.Add(filepath.Dir(file)); err != nil {
		p.mu.Unlock()
		w.Close()
		return err
	}
	p.watcher = w
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	p.load(file)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.watch(w, file, done)
	}()
	common.Logger().Info("panel watching file", "path", file)
	return nil
}

func (p *panel) watch(w *fsnotify.Watcher, file string, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != file {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				p.load(file)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("panel watcher error", "path", file, "error", err)
		}
	}
}

// load queues the file's contents. A missing file is not an error; it may not exist yet.
func (p *panel) load(file string) {
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		p.enqueue(pending{source: file, err: err})
		return
	}
	if len(data) == 0 {
		// truncate half of a write; the write event follows
		return
	}
	p.enqueue(pending{source: file, data: data})
}

func (p *panel) Close() error {
	p.mu.Lock()
	w, done := p.watcher, p.done
	p.watcher, p.done = nil, nil
	p.mu.Unlock()

	if w == nil {
		return nil
	}
	close(done)
	err := w.Close()
	p.wg.Wait()
	return err
}
