package labels

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"chemoventry/internal/models"
	"chemoventry/internal/store"
	"chemoventry/internal/store/file"
	"chemoventry/internal/store/fixture"
)

type memoryLabels struct {
	mu    sync.Mutex
	codes []models.QRCode
	saves int
}

func (m *memoryLabels) Load(ctx context.Context) ([]models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.QRCode(nil), m.codes...), nil
}

func (m *memoryLabels) Save(ctx context.Context, codes []models.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append([]models.QRCode(nil), codes...)
	m.saves++
	return nil
}

type fakeChemicals struct {
	listFn func(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error)
}

func (f fakeChemicals) ListChemicals(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, filter)
}

func TestGenerateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memoryLabels{}, fixture.New())
	fixed := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	code, err := svc.Generate(ctx, "1", "Sodium Chloride", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code.ID == "" || !code.DateCreated.Equal(fixed) || code.ChemicalName != "Sodium Chloride" {
		t.Fatalf("unexpected code %+v", code)
	}
	got, err := svc.Get(ctx, code.ID)
	if err != nil || got.ID != code.ID {
		t.Fatalf("expected stored code, got %+v err=%v", got, err)
	}
	if _, err := svc.Generate(ctx, " ", "x", "1"); !errors.Is(err, ErrChemicalRequired) {
		t.Fatalf("expected chemical required, got %v", err)
	}
}

func TestDeleteUnknown(t *testing.T) {
	svc := NewService(&memoryLabels{}, fixture.New())
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeletedChemicalDropsLabelsAfterSync(t *testing.T) {
	ctx := context.Background()
	inventory := fixture.New()
	labels := &memoryLabels{}
	svc := NewService(labels, inventory)

	if _, err := svc.Generate(ctx, "1", "Sodium Chloride", "1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Generate(ctx, "1", "Sodium Chloride", "1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	keep, err := svc.Generate(ctx, "2", "Ethanol", "1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if err := inventory.DeleteChemical(ctx, "1"); err != nil {
		t.Fatalf("delete chemical: %v", err)
	}
	removed, err := svc.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	codes, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(codes) != 1 || codes[0].ID != keep.ID {
		t.Fatalf("expected only the ethanol label, got %+v", codes)
	}
}

func TestSyncFailureKeepsLabels(t *testing.T) {
	ctx := context.Background()
	labels := &memoryLabels{codes: []models.QRCode{{ID: "a", ChemicalID: "1"}}}
	svc := NewService(labels, fakeChemicals{listFn: func(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
		return nil, errors.New("backend down")
	}})

	if _, err := svc.Sync(ctx); err == nil {
		t.Fatalf("expected sync error")
	}
	codes, err := svc.List(ctx)
	if err != nil || len(codes) != 1 {
		t.Fatalf("expected labels kept, got %+v err=%v", codes, err)
	}
	if labels.saves != 0 {
		t.Fatalf("expected no writes, got %d", labels.saves)
	}
}

func TestSyncKeepsLabelsCreatedDuringSnapshot(t *testing.T) {
	ctx := context.Background()
	labels := &memoryLabels{}
	var svc *Service
	var late models.QRCode
	svc = NewService(labels, fakeChemicals{listFn: func(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
		var err error
		late, err = svc.Generate(ctx, "7", "Acetone", "1")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		return []models.Chemical{{ID: "2"}}, nil
	}})
	clock := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	removed, err := svc.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
	if len(labels.codes) != 1 || labels.codes[0].ID != late.ID {
		t.Fatalf("expected the new label to survive, got %+v", labels.codes)
	}
}

func TestSyncNoChangeSkipsSave(t *testing.T) {
	labels := &memoryLabels{codes: []models.QRCode{{ID: "a", ChemicalID: "2"}}}
	svc := NewService(labels, fixture.New())
	removed, err := svc.Sync(context.Background())
	if err != nil || removed != 0 || labels.saves != 0 {
		t.Fatalf("expected untouched store, removed=%d saves=%d err=%v", removed, labels.saves, err)
	}
}

func TestServiceOverFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "labels.json")
	svc := NewService(file.NewLabelStore(path, file.DefaultStoreName), fixture.New())
	code, err := svc.Generate(ctx, "2", "Ethanol", "1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	reopened := NewService(file.NewLabelStore(path, file.DefaultStoreName), fixture.New())
	got, err := reopened.Get(ctx, code.ID)
	if err != nil || got.ChemicalID != "2" {
		t.Fatalf("expected persisted label, got %+v err=%v", got, err)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	svc := NewService(&memoryLabels{}, fakeChemicals{listFn: func(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Start(ctx, 5*time.Millisecond, svc)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := calls
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected at least one sync")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Start to return after cancel")
	}
}
