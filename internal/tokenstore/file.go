package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// File keeps the tokens as a JSON document readable only by the owner.
type File struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFile(path string) *File {
	return &File{path: path, now: time.Now}
}

func (f *File) Get() (Tokens, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("token store read path=%s err=%v", f.path, err)
		}
		return Tokens{}, false
	}
	return tokens.Live(f.now())
}

func (f *File) Set(access, refresh string) error {
	tokens, err := Issue(access, refresh, f.now())
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(tokens)
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

func (f *File) read() (Tokens, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Tokens{}, err
	}
	var tokens Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return Tokens{}, fmt.Errorf("decode tokens: %w", err)
	}
	return tokens, nil
}

func (f *File) write(tokens Tokens) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	return os.Rename(tmp, f.path)
}
