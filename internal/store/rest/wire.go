package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chemoventry/internal/models"
)

// wireChemical accepts every chemical shape the backend has been seen to send
// and folds it into models.Chemical. Canonical names win over drifted ones.
type wireChemical struct {
	ID                flexString   `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	CASNumber         string       `json:"cas_number"`
	MolecularFormula  string       `json:"molecular_formula"`
	Formula           string       `json:"formula"`
	Quantity          *flexFloat   `json:"quantity"`
	CurrentQuantity   *flexFloat   `json:"current_quantity"`
	Unit              string       `json:"unit"`
	ChemicalState     string       `json:"chemical_state"`
	State             string       `json:"state"`
	HazardInformation string       `json:"hazard_information"`
	HazardClass       string       `json:"hazard_class"`
	ReactivityGroup   string       `json:"reactivity_group"`
	ChemicalType      string       `json:"chemical_type"`
	Vendor            string       `json:"vendor"`
	Supplier          string       `json:"supplier"`
	LocationID        flexString   `json:"location_id"`
	LocationName      string       `json:"location_name"`
	Location          wireLocation `json:"location"`
	Expires           *models.Date `json:"expires"`
	ExpiryDate        *models.Date `json:"expiry_date"`
	DateRegistered    *models.Date `json:"date_registered"`
	CreatedBy         flexString   `json:"created_by"`
	CreatedAt         *time.Time   `json:"created_at"`
	UpdatedAt         *time.Time   `json:"updated_at"`
	IsActive          *bool        `json:"is_active"`
}

func (w wireChemical) canonical() models.Chemical {
	c := models.Chemical{
		ID:                string(w.ID),
		Name:              w.Name,
		Description:       w.Description,
		CASNumber:         w.CASNumber,
		MolecularFormula:  firstNonEmpty(w.MolecularFormula, w.Formula),
		Unit:              w.Unit,
		State:             firstNonEmpty(w.ChemicalState, w.State),
		HazardInformation: firstNonEmpty(w.HazardInformation, w.HazardClass),
		ReactivityGroup:   w.ReactivityGroup,
		ChemicalType:      w.ChemicalType,
		Vendor:            firstNonEmpty(w.Vendor, w.Supplier),
		LocationID:        firstNonEmpty(string(w.LocationID), w.Location.ID),
		LocationName:      firstNonEmpty(w.LocationName, w.Location.Name),
		Expires:           w.Expires,
		DateRegistered:    w.DateRegistered,
		CreatedBy:         string(w.CreatedBy),
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
		IsActive:          w.IsActive == nil || *w.IsActive,
	}
	switch {
	case w.Quantity != nil:
		c.Quantity = float64(*w.Quantity)
	case w.CurrentQuantity != nil:
		c.Quantity = float64(*w.CurrentQuantity)
	}
	if c.Expires == nil {
		c.Expires = w.ExpiryDate
	}
	if c.Expires != nil && c.Expires.IsZero() {
		c.Expires = nil
	}
	return c
}

// wireLocation is a chemical's location given either as an object or as a bare id.
type wireLocation struct {
	ID   string
	Name string
}

func (l *wireLocation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			ID   flexString `json:"id"`
			Name string     `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		l.ID, l.Name = string(obj.ID), obj.Name
		return nil
	}
	var id flexString
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	l.ID = string(id)
	return nil
}

// flexString decodes ids sent as either numbers or strings.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

// flexFloat decodes decimals that the backend may serialise as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	*f = flexFloat(v)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func decodeChemical(data []byte) (models.Chemical, error) {
	var w wireChemical
	if err := json.Unmarshal(data, &w); err != nil {
		return models.Chemical{}, err
	}
	return w.canonical(), nil
}

// decodeChemicals accepts a bare array or a paginated {"results": [...]} envelope.
func decodeChemicals(data []byte) ([]models.Chemical, error) {
	var wires []wireChemical
	if err := decodeList(data, &wires); err != nil {
		return nil, err
	}
	out := make([]models.Chemical, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.canonical())
	}
	return out, nil
}

func decodeList(data []byte, out any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return err
		}
		if len(page.Results) == 0 {
			return nil
		}
		trimmed = page.Results
	}
	return json.Unmarshal(trimmed, out)
}
