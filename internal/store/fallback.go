package store

import (
	"context"
	"errors"
	"log"
	"strings"

	"chemoventry/internal/config"
	"chemoventry/internal/models"
)

// Select picks the data source once at startup. Production talks to the live
// backend only; every other environment answers from fixture when live fails.
func Select(env string, live, fixture Catalog) Catalog {
	if strings.EqualFold(strings.TrimSpace(env), config.EnvProduction) {
		return live
	}
	log.Printf("store data source env=%s mode=live-with-fixture-fallback", env)
	return Catalog{
		Chemicals: fallbackChemicals{live: live.Chemicals, fixture: fixture.Chemicals},
		Locations: fallbackLocations{live: live.Locations, fixture: fixture.Locations},
		Users:     fallbackUsers{live: live.Users, fixture: fixture.Users},
		QRCodes:   fallbackQRCodes{live: live.QRCodes, fixture: fixture.QRCodes},
		Dashboard: fallbackDashboard{live: live.Dashboard, fixture: fixture.Dashboard},
	}
}

// substitutable reports whether a live failure may be answered from the fixture.
// Caller cancellation and client-side validation are never substituted.
func substitutable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var validation *models.ValidationError
	return !errors.As(err, &validation)
}

func withFallback[T any](op string, live, fixture func() (T, error)) (T, error) {
	value, err := live()
	if err == nil || !substitutable(err) {
		return value, err
	}
	log.Printf("store fallback op=%s err=%v", op, err)
	return fixture()
}

func withFallbackErr(op string, live, fixture func() error) error {
	_, err := withFallback(op,
		func() (struct{}, error) { return struct{}{}, live() },
		func() (struct{}, error) { return struct{}{}, fixture() },
	)
	return err
}

type fallbackChemicals struct {
	live, fixture ChemicalStore
}

func (f fallbackChemicals) ListChemicals(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
	return withFallback("chemicals.list",
		func() ([]models.Chemical, error) { return f.live.ListChemicals(ctx, filter) },
		func() ([]models.Chemical, error) { return f.fixture.ListChemicals(ctx, filter) },
	)
}

func (f fallbackChemicals) GetChemical(ctx context.Context, id string) (models.Chemical, error) {
	return withFallback("chemicals.get",
		func() (models.Chemical, error) { return f.live.GetChemical(ctx, id) },
		func() (models.Chemical, error) { return f.fixture.GetChemical(ctx, id) },
	)
}

func (f fallbackChemicals) CreateChemical(ctx context.Context, chemical models.Chemical) (models.Chemical, error) {
	return withFallback("chemicals.create",
		func() (models.Chemical, error) { return f.live.CreateChemical(ctx, chemical) },
		func() (models.Chemical, error) { return f.fixture.CreateChemical(ctx, chemical) },
	)
}

func (f fallbackChemicals) UpdateChemical(ctx context.Context, id string, patch models.ChemicalPatch) (models.Chemical, error) {
	return withFallback("chemicals.update",
		func() (models.Chemical, error) { return f.live.UpdateChemical(ctx, id, patch) },
		func() (models.Chemical, error) { return f.fixture.UpdateChemical(ctx, id, patch) },
	)
}

func (f fallbackChemicals) DeleteChemical(ctx context.Context, id string) error {
	return withFallbackErr("chemicals.delete",
		func() error { return f.live.DeleteChemical(ctx, id) },
		func() error { return f.fixture.DeleteChemical(ctx, id) },
	)
}

type fallbackLocations struct {
	live, fixture LocationStore
}

func (f fallbackLocations) ListLocations(ctx context.Context) ([]models.Location, error) {
	return withFallback("locations.list",
		func() ([]models.Location, error) { return f.live.ListLocations(ctx) },
		func() ([]models.Location, error) { return f.fixture.ListLocations(ctx) },
	)
}

func (f fallbackLocations) GetLocation(ctx context.Context, id string) (models.Location, error) {
	return withFallback("locations.get",
		func() (models.Location, error) { return f.live.GetLocation(ctx, id) },
		func() (models.Location, error) { return f.fixture.GetLocation(ctx, id) },
	)
}

func (f fallbackLocations) CreateLocation(ctx context.Context, location models.Location) (models.Location, error) {
	return withFallback("locations.create",
		func() (models.Location, error) { return f.live.CreateLocation(ctx, location) },
		func() (models.Location, error) { return f.fixture.CreateLocation(ctx, location) },
	)
}

func (f fallbackLocations) UpdateLocation(ctx context.Context, id string, patch models.LocationPatch) (models.Location, error) {
	return withFallback("locations.update",
		func() (models.Location, error) { return f.live.UpdateLocation(ctx, id, patch) },
		func() (models.Location, error) { return f.fixture.UpdateLocation(ctx, id, patch) },
	)
}

func (f fallbackLocations) DeleteLocation(ctx context.Context, id string) error {
	return withFallbackErr("locations.delete",
		func() error { return f.live.DeleteLocation(ctx, id) },
		func() error { return f.fixture.DeleteLocation(ctx, id) },
	)
}

type fallbackUsers struct {
	live, fixture UserStore
}

func (f fallbackUsers) ListUsers(ctx context.Context) ([]models.User, error) {
	return withFallback("users.list",
		func() ([]models.User, error) { return f.live.ListUsers(ctx) },
		func() ([]models.User, error) { return f.fixture.ListUsers(ctx) },
	)
}

func (f fallbackUsers) GetUser(ctx context.Context, id string) (models.User, error) {
	return withFallback("users.get",
		func() (models.User, error) { return f.live.GetUser(ctx, id) },
		func() (models.User, error) { return f.fixture.GetUser(ctx, id) },
	)
}

func (f fallbackUsers) CurrentUser(ctx context.Context) (models.User, error) {
	return withFallback("users.me",
		func() (models.User, error) { return f.live.CurrentUser(ctx) },
		func() (models.User, error) { return f.fixture.CurrentUser(ctx) },
	)
}

func (f fallbackUsers) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	return withFallback("users.create",
		func() (models.User, error) { return f.live.CreateUser(ctx, input) },
		func() (models.User, error) { return f.fixture.CreateUser(ctx, input) },
	)
}

func (f fallbackUsers) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	return withFallback("users.update",
		func() (models.User, error) { return f.live.UpdateUser(ctx, id, patch) },
		func() (models.User, error) { return f.fixture.UpdateUser(ctx, id, patch) },
	)
}

func (f fallbackUsers) DeleteUser(ctx context.Context, id string) error {
	return withFallbackErr("users.delete",
		func() error { return f.live.DeleteUser(ctx, id) },
		func() error { return f.fixture.DeleteUser(ctx, id) },
	)
}

type fallbackQRCodes struct {
	live, fixture QRCodeStore
}

func (f fallbackQRCodes) ListQRCodes(ctx context.Context) ([]models.QRCode, error) {
	return withFallback("qrcodes.list",
		func() ([]models.QRCode, error) { return f.live.ListQRCodes(ctx) },
		func() ([]models.QRCode, error) { return f.fixture.ListQRCodes(ctx) },
	)
}

func (f fallbackQRCodes) GetQRCode(ctx context.Context, id string) (models.QRCode, error) {
	return withFallback("qrcodes.get",
		func() (models.QRCode, error) { return f.live.GetQRCode(ctx, id) },
		func() (models.QRCode, error) { return f.fixture.GetQRCode(ctx, id) },
	)
}

func (f fallbackQRCodes) CreateQRCode(ctx context.Context, chemicalID, chemicalName string) (models.QRCode, error) {
	return withFallback("qrcodes.create",
		func() (models.QRCode, error) { return f.live.CreateQRCode(ctx, chemicalID, chemicalName) },
		func() (models.QRCode, error) { return f.fixture.CreateQRCode(ctx, chemicalID, chemicalName) },
	)
}

func (f fallbackQRCodes) DeleteQRCode(ctx context.Context, id string) error {
	return withFallbackErr("qrcodes.delete",
		func() error { return f.live.DeleteQRCode(ctx, id) },
		func() error { return f.fixture.DeleteQRCode(ctx, id) },
	)
}

type fallbackDashboard struct {
	live, fixture DashboardStore
}

func (f fallbackDashboard) Overview(ctx context.Context) (models.DashboardOverview, error) {
	return withFallback("dashboard.overview",
		func() (models.DashboardOverview, error) { return f.live.Overview(ctx) },
		func() (models.DashboardOverview, error) { return f.fixture.Overview(ctx) },
	)
}
