// Package labels manages the locally persisted QR label list and keeps it
// consistent with the chemical inventory.
package labels

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"chemoventry/internal/models"
	"chemoventry/internal/store"

	"github.com/google/uuid"
)

var ErrChemicalRequired = errors.New("chemical id is required")

// ChemicalLister is the slice of the chemical store a sync needs.
type ChemicalLister interface {
	ListChemicals(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error)
}

type Service struct {
	mu        sync.Mutex
	labels    store.LabelStore
	chemicals ChemicalLister
	now       func() time.Time
}

// NewService builds the label service. chemicals must be the authoritative
// inventory: a substituted dataset would prune labels of real chemicals.
func NewService(labels store.LabelStore, chemicals ChemicalLister) *Service {
	return &Service{labels: labels, chemicals: chemicals, now: time.Now}
}

// List syncs against the inventory first. A failed sync is logged and the
// stored list is returned unchanged.
func (s *Service) List(ctx context.Context) ([]models.QRCode, error) {
	if _, err := s.Sync(ctx); err != nil {
		log.Printf("labels sync failed err=%v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.labels.Load(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (models.QRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes, err := s.labels.Load(ctx)
	if err != nil {
		return models.QRCode{}, err
	}
	for _, code := range codes {
		if code.ID == id {
			return code, nil
		}
	}
	return models.QRCode{}, store.NotFound("qr code", id)
}

func (s *Service) Generate(ctx context.Context, chemicalID, chemicalName, createdBy string) (models.QRCode, error) {
	if strings.TrimSpace(chemicalID) == "" {
		return models.QRCode{}, ErrChemicalRequired
	}
	code := models.QRCode{
		ID:           uuid.NewString(),
		ChemicalID:   chemicalID,
		ChemicalName: chemicalName,
		DateCreated:  s.now().UTC(),
		CreatedBy:    createdBy,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	codes, err := s.labels.Load(ctx)
	if err != nil {
		return models.QRCode{}, err
	}
	if err := s.labels.Save(ctx, append(codes, code)); err != nil {
		return models.QRCode{}, fmt.Errorf("save labels: %w", err)
	}
	return code, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes, err := s.labels.Load(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.QRCode, 0, len(codes))
	for _, code := range codes {
		if code.ID != id {
			kept = append(kept, code)
		}
	}
	if len(kept) == len(codes) {
		return store.NotFound("qr code", id)
	}
	if err := s.labels.Save(ctx, kept); err != nil {
		return fmt.Errorf("save labels: %w", err)
	}
	return nil
}

// Sync drops every label whose chemical is no longer in the inventory and
// returns how many were removed. Labels created after the inventory snapshot
// was taken are kept.
func (s *Service) Sync(ctx context.Context) (int, error) {
	started := s.now()
	chemicals, err := s.chemicals.ListChemicals(ctx, models.ChemicalFilter{})
	if err != nil {
		return 0, fmt.Errorf("list chemicals: %w", err)
	}
	valid := make(map[string]struct{}, len(chemicals))
	for _, c := range chemicals {
		valid[c.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	codes, err := s.labels.Load(ctx)
	if err != nil {
		return 0, err
	}
	kept := make([]models.QRCode, 0, len(codes))
	for _, code := range codes {
		if _, ok := valid[code.ChemicalID]; ok || code.DateCreated.After(started) {
			kept = append(kept, code)
		}
	}
	removed := len(codes) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.labels.Save(ctx, kept); err != nil {
		return 0, fmt.Errorf("save labels: %w", err)
	}
	log.Printf("labels sync removed=%d kept=%d", removed, len(kept))
	return removed, nil
}

// Start runs Sync every interval until ctx is done.
func Start(ctx context.Context, interval time.Duration, s *Service) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				log.Printf("labels worker error: %v", err)
			}
		}
	}
}
