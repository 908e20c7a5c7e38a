package log

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
)

var (
	errWriterAlreadyLoaded = errors.New("io.Writer already loaded")
	errWriterNotFound      = errors.New("io.Writer not found")
)

type multiWriter struct {
	writers []io.Writer
	mu      sync.RWMutex
}

// MultiWriter returns a writer duplicating every write to the writers
func MultiWriter(writers ...io.Writer) (*multiWriter, error) {
	mw := &multiWriter{writers: make([]io.Writer, 0, len(writers))}
	for x := range writers {
		if err := mw.Add(writers[x]); err != nil {
			return nil, err
		}
	}
	return mw, nil
}

// Add registers a writer once
func (mw *multiWriter) Add(w io.Writer) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if slices.Contains(mw.writers, w) {
		return errWriterAlreadyLoaded
	}
	mw.writers = append(mw.writers, w)
	return nil
}

// Remove unregisters a writer
func (mw *multiWriter) Remove(w io.Writer) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	i := slices.Index(mw.writers, w)
	if i < 0 {
		return errWriterNotFound
	}
	mw.writers = slices.Delete(mw.writers, i, i+1)
	return nil
}

// Write fans p out to every writer, failing on the first error or short write
func (mw *multiWriter) Write(p []byte) (int, error) {
	mw.mu.RLock()
	defer mw.mu.RUnlock()
	for _, w := range mw.writers {
		n, err := w.Write(p)
		switch {
		case err != nil:
			return n, fmt.Errorf("%T %w", w, err)
		case n != len(p):
			return n, fmt.Errorf("%T %w", w, io.ErrShortWrite)
		}
	}
	return len(p), nil
}
