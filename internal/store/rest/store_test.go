package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chemoventry/internal/apiclient"
	"chemoventry/internal/models"
	"chemoventry/internal/store"
	"chemoventry/internal/tokenstore"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(apiclient.New(srv.URL, tokenstore.NewMemory()))
}

func TestListChemicalsAdaptsDriftedSchema(t *testing.T) {
	var query string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chemicalPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query = r.URL.RawQuery
		w.Write([]byte(`[
			{"id": 1, "name": "Sodium Chloride", "formula": "NaCl", "state": "Solid",
			 "hazard_class": "Low hazard", "expiry_date": "2027-12-31", "current_quantity": "500.00",
			 "supplier": "Sigma", "location": {"id": 3, "name": "Lab A"}},
			{"id": "2", "name": "Ethanol", "molecular_formula": "C2H5OH", "formula": "ignored",
			 "quantity": 2.5, "location": 4, "expires": "2026-06-30T00:00:00Z", "is_active": false}
		]`))
	})

	low := true
	chemicals, err := s.ListChemicals(context.Background(), models.ChemicalFilter{Name: "eth", LowStock: &low})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query != "low_stock=true&name=eth" {
		t.Fatalf("unexpected query %q", query)
	}
	if len(chemicals) != 2 {
		t.Fatalf("expected 2 chemicals, got %d", len(chemicals))
	}

	salt := chemicals[0]
	if salt.ID != "1" || salt.MolecularFormula != "NaCl" || salt.State != "Solid" || salt.HazardInformation != "Low hazard" {
		t.Fatalf("unexpected adapted chemical %+v", salt)
	}
	if salt.Quantity != 500 || salt.Vendor != "Sigma" || salt.LocationID != "3" || salt.LocationName != "Lab A" {
		t.Fatalf("unexpected adapted chemical %+v", salt)
	}
	if salt.Expires == nil || salt.Expires.String() != "2027-12-31" || !salt.IsActive {
		t.Fatalf("unexpected expiry or active flag %+v", salt)
	}

	ethanol := chemicals[1]
	if ethanol.MolecularFormula != "C2H5OH" || ethanol.LocationID != "4" || ethanol.IsActive {
		t.Fatalf("unexpected adapted chemical %+v", ethanol)
	}
	if ethanol.Expires == nil || ethanol.Expires.String() != "2026-06-30" {
		t.Fatalf("expected timestamp expiry to collapse to a date, got %v", ethanol.Expires)
	}
}

func TestListChemicalsPaginated(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 1, "results": [{"id": 7, "name": "Acetone", "quantity": 1}]}`))
	})
	chemicals, err := s.ListChemicals(context.Background(), models.ChemicalFilter{})
	if err != nil || len(chemicals) != 1 || chemicals[0].ID != "7" {
		t.Fatalf("unexpected result %+v err=%v", chemicals, err)
	}
}

func TestGetChemicalNotFound(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found."}`))
	})
	_, err := s.GetChemical(context.Background(), "9")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "chemical 9 not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if apiclient.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("expected wrapped api error")
	}
}

func TestCreateChemicalValidatesBeforeSending(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s %s", r.Method, r.URL.Path)
	})
	_, err := s.CreateChemical(context.Background(), models.Chemical{Name: "Bad", Quantity: -2})
	var validation *models.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateChemicalSendsCanonicalBody(t *testing.T) {
	var body map[string]any
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 11, "name": "Acetone", "quantity": 4, "chemical_state": "Liquid"}`))
	})
	expires := models.NewDate(2027, 1, 2)
	created, err := s.CreateChemical(context.Background(), models.Chemical{Name: "Acetone", Quantity: 4, State: models.StateLiquid, Expires: &expires})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "11" {
		t.Fatalf("expected backend id, got %q", created.ID)
	}
	if _, ok := body["id"]; ok {
		t.Fatalf("create body must not carry an empty id: %v", body)
	}
	if body["chemical_state"] != "Liquid" || body["expires"] != "2027-01-02" {
		t.Fatalf("expected canonical field names, got %v", body)
	}
}

func TestUpdateLocationRejectsOverCapacity(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	current, max := 20, 10
	_, err := s.UpdateLocation(context.Background(), "1", models.LocationPatch{CurrentCapacity: &current, MaxCapacity: &max})
	var validation *models.ValidationError
	if !errors.As(err, &validation) || validation.Field != "current_capacity" {
		t.Fatalf("expected capacity validation error, got %v", err)
	}
}

func TestListUsersNumericIDs(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != usersPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id": 1, "first_name": "John", "last_name": "Doe", "email": "john@example.com",
			"role": "admin", "is_active": true, "join_date": "2024-01-01"}]`))
	})
	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 || users[0].ID != "1" || users[0].FullName() != "John Doe" {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestCurrentUserPath(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != currentPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"id": "5", "email": "a@example.com", "role": "attendant", "join_date": "2024-01-01T09:00:00Z"}`))
	})
	user, err := s.CurrentUser(context.Background())
	if err != nil || user.ID != "5" || user.IsAdmin() {
		t.Fatalf("unexpected user %+v err=%v", user, err)
	}
}

func TestListQRCodesDateOnly(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 1, "chemical_id": 2, "chemical_name": "Ethanol", "date_created": "2023-06-15", "created_by": 1}]`))
	})
	codes, err := s.ListQRCodes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)
	if len(codes) != 1 || codes[0].ChemicalID != "2" || !codes[0].DateCreated.Equal(want) {
		t.Fatalf("unexpected codes %+v", codes)
	}
}

func TestCreateQRCodeBody(t *testing.T) {
	var body map[string]string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"id": 3, "chemical_id": 1, "chemical_name": "Sodium Chloride",
			"date_created": "2026-10-14T12:00:00Z", "created_by": 1}`))
	})
	code, err := s.CreateQRCode(context.Background(), "1", "Sodium Chloride")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["chemical_id"] != "1" || body["chemical_name"] != "Sodium Chloride" {
		t.Fatalf("unexpected body %v", body)
	}
	if code.ID != "3" || code.ChemicalID != "1" || code.CreatedBy != "1" {
		t.Fatalf("unexpected code %+v", code)
	}
}

func TestDeleteQRCodeNotFound(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/qr-codes/8/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	})
	if err := s.DeleteQRCode(context.Background(), "8"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOverview(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_chemicals": 12, "expired_chemicals": 2, "low_stock_alerts": 3,
			"monthly_usage_change": -4.5,
			"recent_activity": [{"action": "Used", "chemical": "Ethanol", "quantity": "1 L", "user": "Jane", "timestamp": "now"}],
			"usage_trends": [{"month": "Jan", "usage": 10}]}`))
	})
	overview, err := s.Overview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.TotalChemicals != 12 || overview.MonthlyUsageChange != -4.5 || len(overview.RecentActivity) != 1 {
		t.Fatalf("unexpected overview %+v", overview)
	}
}

func TestForbiddenPropagates(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := s.ListLocations(context.Background())
	if !errors.Is(err, apiclient.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
