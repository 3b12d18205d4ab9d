package store

import (
	"context"
	"errors"
	"testing"

	"chemoventry/internal/models"
)

type fakeChemicals struct {
	listFn   func(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error)
	createFn func(ctx context.Context, chemical models.Chemical) (models.Chemical, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f fakeChemicals) ListChemicals(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, filter)
}

func (f fakeChemicals) GetChemical(ctx context.Context, id string) (models.Chemical, error) {
	return models.Chemical{}, NotFound("chemical", id)
}

func (f fakeChemicals) CreateChemical(ctx context.Context, chemical models.Chemical) (models.Chemical, error) {
	if f.createFn == nil {
		return chemical, nil
	}
	return f.createFn(ctx, chemical)
}

func (f fakeChemicals) UpdateChemical(ctx context.Context, id string, patch models.ChemicalPatch) (models.Chemical, error) {
	return patch.Apply(models.Chemical{ID: id}), nil
}

func (f fakeChemicals) DeleteChemical(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

var errUnreachable = errors.New("dial tcp: connection refused")

func failingChemicals() fakeChemicals {
	return fakeChemicals{
		listFn: func(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
			return nil, errUnreachable
		},
		createFn: func(ctx context.Context, chemical models.Chemical) (models.Chemical, error) {
			return models.Chemical{}, errUnreachable
		},
		deleteFn: func(ctx context.Context, id string) error {
			return errUnreachable
		},
	}
}

func mockChemicals() fakeChemicals {
	return fakeChemicals{
		listFn: func(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
			return []models.Chemical{{ID: "1", Name: "Sodium Chloride"}}, nil
		},
		createFn: func(ctx context.Context, chemical models.Chemical) (models.Chemical, error) {
			chemical.ID = "generated"
			return chemical, nil
		},
	}
}

func TestSelectDevelopmentFallsBack(t *testing.T) {
	catalog := Select("development", Catalog{Chemicals: failingChemicals()}, Catalog{Chemicals: mockChemicals()})

	chemicals, err := catalog.Chemicals.ListChemicals(context.Background(), models.ChemicalFilter{})
	if err != nil {
		t.Fatalf("expected fixture data, got error %v", err)
	}
	if len(chemicals) != 1 || chemicals[0].Name != "Sodium Chloride" {
		t.Fatalf("expected fixture chemicals, got %+v", chemicals)
	}

	created, err := catalog.Chemicals.CreateChemical(context.Background(), models.Chemical{Name: "Acetone"})
	if err != nil || created.ID != "generated" {
		t.Fatalf("expected synthesised create, got %+v err=%v", created, err)
	}
	if err := catalog.Chemicals.DeleteChemical(context.Background(), "1"); err != nil {
		t.Fatalf("expected synthesised delete, got %v", err)
	}
}

func TestSelectProductionPropagates(t *testing.T) {
	catalog := Select("production", Catalog{Chemicals: failingChemicals()}, Catalog{Chemicals: mockChemicals()})

	_, err := catalog.Chemicals.ListChemicals(context.Background(), models.ChemicalFilter{})
	if !errors.Is(err, errUnreachable) {
		t.Fatalf("expected live error, got %v", err)
	}
}

func TestSelectLiveSuccessWins(t *testing.T) {
	live := fakeChemicals{listFn: func(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
		return []models.Chemical{{ID: "42", Name: "Live"}}, nil
	}}
	catalog := Select("development", Catalog{Chemicals: live}, Catalog{Chemicals: mockChemicals()})

	chemicals, err := catalog.Chemicals.ListChemicals(context.Background(), models.ChemicalFilter{})
	if err != nil || len(chemicals) != 1 || chemicals[0].ID != "42" {
		t.Fatalf("expected live data, got %+v err=%v", chemicals, err)
	}
}

func TestFallbackSkipsCancellationAndValidation(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{name: "canceled", err: context.Canceled},
		{name: "deadline", err: context.DeadlineExceeded},
		{name: "validation", err: &models.ValidationError{Field: "name", Message: "is required"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			live := fakeChemicals{listFn: func(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
				return nil, tc.err
			}}
			catalog := Select("development", Catalog{Chemicals: live}, Catalog{Chemicals: mockChemicals()})
			if _, err := catalog.Chemicals.ListChemicals(context.Background(), models.ChemicalFilter{}); !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := NotFound("chemical", "9")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound match")
	}
	if err.Error() != "chemical 9 not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
