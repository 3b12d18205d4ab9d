// Package fixture serves the static development datasets behind the store interfaces.
//
// Reads answer from the seeded data. Writes are applied in memory and always
// produce a plausible success value: creates get a generated id and timestamps,
// updates of an unknown id are synthesised from the patch, deletes of an unknown
// id succeed.
package fixture

import (
	"context"
	"strings"
	"sync"
	"time"

	"chemoventry/internal/models"
	"chemoventry/internal/store"

	"github.com/google/uuid"
)

// LowStockThreshold is the quantity under which a chemical counts as low stock.
const LowStockThreshold = 10

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	chemicals []models.Chemical
	locations []models.Location
	users     []models.User
	qrcodes   []models.QRCode
	activity  []models.RecentActivity
	trends    []models.UsageTrend
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		chemicals: seedChemicals(),
		locations: seedLocations(),
		users:     seedUsers(),
		qrcodes:   seedQRCodes(),
		activity:  seedActivity(),
		trends:    seedTrends(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Catalog() store.Catalog {
	return store.Catalog{
		Chemicals: s,
		Locations: s,
		Users:     s,
		QRCodes:   s,
		Dashboard: s,
	}
}

func (s *Store) ListChemicals(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]models.Chemical, 0, len(s.chemicals))
	for _, c := range s.chemicals {
		if matches(c, filter, now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func matches(c models.Chemical, f models.ChemicalFilter, now time.Time) bool {
	if f.Name != "" && !containsFold(c.Name, f.Name) {
		return false
	}
	if f.CASNumber != "" && c.CASNumber != f.CASNumber {
		return false
	}
	if f.LocationID != "" && c.LocationID != f.LocationID {
		return false
	}
	if f.State != "" && !strings.EqualFold(c.State, f.State) {
		return false
	}
	if f.HazardClass != "" && !containsFold(c.HazardInformation, f.HazardClass) {
		return false
	}
	if f.LowStock != nil && (c.Quantity < LowStockThreshold) != *f.LowStock {
		return false
	}
	if f.Expired != nil && c.Expired(now) != *f.Expired {
		return false
	}
	if f.IsActive != nil && c.IsActive != *f.IsActive {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (s *Store) GetChemical(ctx context.Context, id string) (models.Chemical, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.chemicalIndex(id); i >= 0 {
		return s.chemicals[i], nil
	}
	return models.Chemical{}, store.NotFound("chemical", id)
}

func (s *Store) CreateChemical(ctx context.Context, chemical models.Chemical) (models.Chemical, error) {
	if err := chemical.Validate(); err != nil {
		return models.Chemical{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	chemical.ID = uuid.NewString()
	chemical.CreatedAt = &now
	chemical.UpdatedAt = &now
	if chemical.DateRegistered == nil {
		today := models.NewDate(now.Year(), now.Month(), now.Day())
		chemical.DateRegistered = &today
	}
	if chemical.LocationName == "" && chemical.LocationID != "" {
		chemical.LocationName = models.LocationLabel(s.locations, chemical.LocationID)
	}
	chemical.IsActive = true
	s.chemicals = append(s.chemicals, chemical)
	return chemical, nil
}

func (s *Store) UpdateChemical(ctx context.Context, id string, patch models.ChemicalPatch) (models.Chemical, error) {
	if err := patch.Validate(); err != nil {
		return models.Chemical{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	i := s.chemicalIndex(id)
	if i < 0 {
		updated := patch.Apply(models.Chemical{ID: id})
		updated.UpdatedAt = &now
		return updated, nil
	}
	updated := patch.Apply(s.chemicals[i])
	if patch.LocationID != nil {
		updated.LocationName = models.LocationLabel(s.locations, updated.LocationID)
	}
	updated.UpdatedAt = &now
	s.chemicals[i] = updated
	return updated, nil
}

func (s *Store) DeleteChemical(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.chemicalIndex(id); i >= 0 {
		s.chemicals = append(s.chemicals[:i], s.chemicals[i+1:]...)
	}
	return nil
}

func (s *Store) chemicalIndex(id string) int {
	for i, c := range s.chemicals {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Location(nil), s.locations...), nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.locationIndex(id); i >= 0 {
		return s.locations[i], nil
	}
	return models.Location{}, store.NotFound("location", id)
}

func (s *Store) CreateLocation(ctx context.Context, location models.Location) (models.Location, error) {
	if err := location.Validate(); err != nil {
		return models.Location{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location.ID = uuid.NewString()
	location.IsActive = true
	s.locations = append(s.locations, location)
	return location, nil
}

func (s *Store) UpdateLocation(ctx context.Context, id string, patch models.LocationPatch) (models.Location, error) {
	if err := patch.Validate(); err != nil {
		return models.Location{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.locationIndex(id)
	if i < 0 {
		return patch.Apply(models.Location{ID: id}), nil
	}
	updated := patch.Apply(s.locations[i])
	if err := updated.Validate(); err != nil {
		return models.Location{}, err
	}
	s.locations[i] = updated
	return updated, nil
}

func (s *Store) DeleteLocation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.locationIndex(id); i >= 0 {
		s.locations = append(s.locations[:i], s.locations[i+1:]...)
	}
	return nil
}

func (s *Store) locationIndex(id string) int {
	for i, l := range s.locations {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.users...), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.userIndex(id); i >= 0 {
		return s.users[i], nil
	}
	return models.User{}, store.NotFound("user", id)
}

// CurrentUser is the seeded administrator.
func (s *Store) CurrentUser(ctx context.Context) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.IsAdmin() {
			return u, nil
		}
	}
	return models.User{}, store.NotFound("user", "me")
}

func (s *Store) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	if err := input.Validate(); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user := models.User{
		ID:        uuid.NewString(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Role:      input.Role,
		IsActive:  input.IsActive == nil || *input.IsActive,
		JoinDate:  s.now().UTC(),
	}
	s.users = append(s.users, user)
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	if err := patch.Validate(); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return patch.Apply(models.User{ID: id}), nil
	}
	s.users[i] = patch.Apply(s.users[i])
	return s.users[i], nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.userIndex(id); i >= 0 {
		s.users = append(s.users[:i], s.users[i+1:]...)
	}
	return nil
}

func (s *Store) userIndex(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListQRCodes(ctx context.Context) ([]models.QRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.QRCode(nil), s.qrcodes...), nil
}

func (s *Store) GetQRCode(ctx context.Context, id string) (models.QRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, code := range s.qrcodes {
		if code.ID == id {
			return code, nil
		}
	}
	return models.QRCode{}, store.NotFound("qr code", id)
}

func (s *Store) CreateQRCode(ctx context.Context, chemicalID, chemicalName string) (models.QRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := models.QRCode{
		ID:           uuid.NewString(),
		ChemicalID:   chemicalID,
		ChemicalName: chemicalName,
		DateCreated:  s.now().UTC(),
		CreatedBy:    "1",
	}
	s.qrcodes = append(s.qrcodes, code)
	return code, nil
}

func (s *Store) DeleteQRCode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, code := range s.qrcodes {
		if code.ID == id {
			s.qrcodes = append(s.qrcodes[:i], s.qrcodes[i+1:]...)
			break
		}
	}
	return nil
}

// Overview derives the counters from the current chemicals; activity and trends are canned.
func (s *Store) Overview(ctx context.Context) (models.DashboardOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	overview := models.DashboardOverview{
		TotalChemicals:     len(s.chemicals),
		MonthlyUsageChange: 12.5,
		RecentActivity:     append([]models.RecentActivity(nil), s.activity...),
		UsageTrends:        append([]models.UsageTrend(nil), s.trends...),
	}
	for _, c := range s.chemicals {
		if c.Expired(now) {
			overview.ExpiredChemicals++
		}
		if c.Quantity < LowStockThreshold {
			overview.LowStockAlerts++
		}
	}
	return overview, nil
}
