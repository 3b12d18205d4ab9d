package store

import (
	"context"

	"chemoventry/internal/models"
)

type ChemicalStore interface {
	ListChemicals(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error)
	GetChemical(ctx context.Context, id string) (models.Chemical, error)
	CreateChemical(ctx context.Context, chemical models.Chemical) (models.Chemical, error)
	UpdateChemical(ctx context.Context, id string, patch models.ChemicalPatch) (models.Chemical, error)
	DeleteChemical(ctx context.Context, id string) error
}

type LocationStore interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	GetLocation(ctx context.Context, id string) (models.Location, error)
	CreateLocation(ctx context.Context, location models.Location) (models.Location, error)
	UpdateLocation(ctx context.Context, id string, patch models.LocationPatch) (models.Location, error)
	DeleteLocation(ctx context.Context, id string) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	CurrentUser(ctx context.Context) (models.User, error)
	CreateUser(ctx context.Context, input models.UserInput) (models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type QRCodeStore interface {
	ListQRCodes(ctx context.Context) ([]models.QRCode, error)
	GetQRCode(ctx context.Context, id string) (models.QRCode, error)
	CreateQRCode(ctx context.Context, chemicalID, chemicalName string) (models.QRCode, error)
	DeleteQRCode(ctx context.Context, id string) error
}

type DashboardStore interface {
	Overview(ctx context.Context) (models.DashboardOverview, error)
}

// LabelStore persists the local QR label list.
type LabelStore interface {
	Load(ctx context.Context) ([]models.QRCode, error)
	Save(ctx context.Context, codes []models.QRCode) error
}

// Catalog is the full set of resource stores a front end talks to.
type Catalog struct {
	Chemicals ChemicalStore
	Locations LocationStore
	Users     UserStore
	QRCodes   QRCodeStore
	Dashboard DashboardStore
}
