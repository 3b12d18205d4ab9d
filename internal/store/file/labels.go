// Package file persists the QR label list as a JSON document on local disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"chemoventry/internal/models"
)

// DefaultStoreName is the key the label list is kept under.
const DefaultStoreName = "qrcode-storage"

// LabelStore keeps one entry per store name in a shared file, so several
// named lists can live side by side.
type LabelStore struct {
	mu   sync.Mutex
	path string
	name string
}

type entry struct {
	State struct {
		QRCodes []models.QRCode `json:"qrCodes"`
	} `json:"state"`
	Version int `json:"version"`
}

func NewLabelStore(path, name string) *LabelStore {
	if name == "" {
		name = DefaultStoreName
	}
	return &LabelStore{path: path, name: name}
}

func (s *LabelStore) Load(ctx context.Context) ([]models.QRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	e, ok := doc[s.name]
	if !ok {
		return nil, nil
	}
	return e.State.QRCodes, nil
}

func (s *LabelStore) Save(ctx context.Context, codes []models.QRCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	var e entry
	e.State.QRCodes = codes
	if e.State.QRCodes == nil {
		e.State.QRCodes = []models.QRCode{}
	}
	doc[s.name] = e
	return s.write(doc)
}

func (s *LabelStore) read() (map[string]entry, error) {
	doc := map[string]entry{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode labels %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *LabelStore) write(doc map[string]entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create label dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write labels: %w", err)
	}
	return os.Rename(tmp, s.path)
}
