// Package rest implements the resource stores against the Chemoventry REST backend.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"chemoventry/internal/apiclient"
	"chemoventry/internal/models"
	"chemoventry/internal/store"
)

const (
	chemicalPath  = "/api/chemical/"
	locationPath  = "/api/location/"
	usersPath     = "/api/users/"
	currentPath   = "/api/users/me/"
	qrCodePath    = "/api/qr-codes/"
	dashboardPath = "/api/dashboard/overview/"
)

type Store struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *Store {
	return &Store{client: client}
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
	resp, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: chemicalPath, Query: chemicalQuery(filter)})
	if err != nil {
		return nil, fmt.Errorf("list chemicals: %w", err)
	}
	chemicals, err := decodeChemicals(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode chemicals: %w", err)
	}
	return chemicals, nil
}

func chemicalQuery(f models.ChemicalFilter) url.Values {
	q := url.Values{}
	setParam(q, "name", f.Name)
	setParam(q, "cas_number", f.CASNumber)
	setParam(q, "location_id", f.LocationID)
	setParam(q, "state", f.State)
	setParam(q, "hazard_class", f.HazardClass)
	setBool(q, "low_stock", f.LowStock)
	setBool(q, "expired", f.Expired)
	setBool(q, "is_active", f.IsActive)
	return q
}

func setParam(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setBool(q url.Values, key string, value *bool) {
	if value != nil {
		q.Set(key, strconv.FormatBool(*value))
	}
}

func (s *Store) GetChemical(ctx context.Context, id string) (models.Chemical, error) {
	resp, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: itemPath(chemicalPath, id)})
	if err != nil {
		return models.Chemical{}, mapErr("chemical", id, err)
	}
	return decodeChemical(resp.Body)
}

func (s *Store) CreateChemical(ctx context.Context, chemical models.Chemical) (models.Chemical, error) {
	if err := chemical.Validate(); err != nil {
		return models.Chemical{}, err
	}
	body, err := withoutID(chemical)
	if err != nil {
		return models.Chemical{}, err
	}
	resp, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: chemicalPath, Body: body})
	if err != nil {
		return models.Chemical{}, fmt.Errorf("create chemical: %w", err)
	}
	return decodeChemical(resp.Body)
}

func (s *Store) UpdateChemical(ctx context.Context, id string, patch models.ChemicalPatch) (models.Chemical, error) {
	if err := patch.Validate(); err != nil {
		return models.Chemical{}, err
	}
	resp, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodPatch, Path: itemPath(chemicalPath, id), Body: patch})
	if err != nil {
		return models.Chemical{}, mapErr("chemical", id, err)
	}
	return decodeChemical(resp.Body)
}

func (s *Store) DeleteChemical(ctx context.Context, id string) error {
	return s.remove(ctx, "chemical", chemicalPath, id)
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := s.list(ctx, locationPath, &locations); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (models.Location, error) {
	var location models.Location
	if err := s.call(ctx, http.MethodGet, itemPath(locationPath, id), nil, &location); err != nil {
		return models.Location{}, mapErr("location", id, err)
	}
	return location, nil
}

func (s *Store) CreateLocation(ctx context.Context, location models.Location) (models.Location, error) {
	if err := location.Validate(); err != nil {
		return models.Location{}, err
	}
	body, err := withoutID(location)
	if err != nil {
		return models.Location{}, err
	}
	var created models.Location
	if err := s.call(ctx, http.MethodPost, locationPath, body, &created); err != nil {
		return models.Location{}, fmt.Errorf("create location: %w", err)
	}
	return created, nil
}

func (s *Store) UpdateLocation(ctx context.Context, id string, patch models.LocationPatch) (models.Location, error) {
	if err := patch.Validate(); err != nil {
		return models.Location{}, err
	}
	var updated models.Location
	if err := s.call(ctx, http.MethodPatch, itemPath(locationPath, id), patch, &updated); err != nil {
		return models.Location{}, mapErr("location", id, err)
	}
	return updated, nil
}

func (s *Store) DeleteLocation(ctx context.Context, id string) error {
	return s.remove(ctx, "location", locationPath, id)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.list(ctx, usersPath, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := s.call(ctx, http.MethodGet, itemPath(usersPath, id), nil, &user); err != nil {
		return models.User{}, mapErr("user", id, err)
	}
	return user, nil
}

func (s *Store) CurrentUser(ctx context.Context) (models.User, error) {
	var user models.User
	if err := s.call(ctx, http.MethodGet, currentPath, nil, &user); err != nil {
		return models.User{}, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	if err := input.Validate(); err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := s.call(ctx, http.MethodPost, usersPath, input, &user); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	if err := patch.Validate(); err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := s.call(ctx, http.MethodPatch, itemPath(usersPath, id), patch, &user); err != nil {
		return models.User{}, mapErr("user", id, err)
	}
	return user, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.remove(ctx, "user", usersPath, id)
}

func (s *Store) ListQRCodes(ctx context.Context) ([]models.QRCode, error) {
	var codes []models.QRCode
	if err := s.list(ctx, qrCodePath, &codes); err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	return codes, nil
}

func (s *Store) GetQRCode(ctx context.Context, id string) (models.QRCode, error) {
	var code models.QRCode
	if err := s.call(ctx, http.MethodGet, itemPath(qrCodePath, id), nil, &code); err != nil {
		return models.QRCode{}, mapErr("qr code", id, err)
	}
	return code, nil
}

func (s *Store) CreateQRCode(ctx context.Context, chemicalID, chemicalName string) (models.QRCode, error) {
	body := map[string]string{"chemical_id": chemicalID, "chemical_name": chemicalName}
	var code models.QRCode
	if err := s.call(ctx, http.MethodPost, qrCodePath, body, &code); err != nil {
		return models.QRCode{}, fmt.Errorf("create qr code: %w", err)
	}
	return code, nil
}

func (s *Store) DeleteQRCode(ctx context.Context, id string) error {
	return s.remove(ctx, "qr code", qrCodePath, id)
}

func (s *Store) Overview(ctx context.Context) (models.DashboardOverview, error) {
	var overview models.DashboardOverview
	if err := s.call(ctx, http.MethodGet, dashboardPath, nil, &overview); err != nil {
		return models.DashboardOverview{}, fmt.Errorf("dashboard overview: %w", err)
	}
	return overview, nil
}

func (s *Store) call(ctx context.Context, method, path string, in, out any) error {
	resp, err := s.client.Do(ctx, apiclient.Request{Method: method, Path: path, Body: in})
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	data, err := normalizeIDs(resp.Body)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, path string, out any) error {
	resp, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return err
	}
	data, err := normalizeIDs(resp.Body)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if err := decodeList(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, resource, base, id string) error {
	if _, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: itemPath(base, id)}); err != nil {
		return mapErr(resource, id, err)
	}
	return nil
}

func itemPath(base, id string) string {
	return base + url.PathEscape(id) + "/"
}

func mapErr(resource, id string, err error) error {
	if errors.Is(err, apiclient.ErrNotFound) {
		return &store.NotFoundError{Resource: resource, ID: id, Err: err}
	}
	return fmt.Errorf("%s %s: %w", resource, id, err)
}

// withoutID drops the empty id so creates let the backend assign one.
func withoutID(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	if id, ok := body["id"].(string); ok && id == "" {
		delete(body, "id")
	}
	return body, nil
}

var idKeys = []string{"id", "chemical_id", "location_id", "created_by"}

// normalizeIDs rewrites numeric ids as strings so they fit the string-typed models.
func normalizeIDs(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return trimmed, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	stringifyIDs(v)
	return json.Marshal(v)
}

func stringifyIDs(v any) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			stringifyIDs(item)
		}
	case map[string]any:
		for _, key := range idKeys {
			if n, ok := t[key].(json.Number); ok {
				t[key] = n.String()
			}
		}
		if results, ok := t["results"]; ok {
			stringifyIDs(results)
		}
	}
}
