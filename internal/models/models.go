package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	RoleAdmin     = "admin"
	RoleAttendant = "attendant"
)

const (
	StateSolid  = "Solid"
	StateLiquid = "Liquid"
	StateGas    = "Gas"
)

const dateLayout = "2006-01-02"

// Date is a calendar date serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD and, for backend drift, full RFC 3339 timestamps.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", value)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	dateLayout,
}

// ParseTimestamp accepts RFC 3339, a zone-less date-time read as UTC, or a bare
// date at midnight UTC. An empty value is the zero time.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// timestamp decodes the backend's datetime fields, which are not always RFC 3339.
type timestamp struct {
	t     time.Time
	valid bool
}

func (ts *timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*ts = timestamp{}
		return nil
	}
	t, err := ParseTimestamp(*raw)
	if err != nil {
		return err
	}
	*ts = timestamp{t: t, valid: *raw != ""}
	return nil
}

type Chemical struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	CASNumber         string     `json:"cas_number,omitempty"`
	MolecularFormula  string     `json:"molecular_formula,omitempty"`
	Quantity          float64    `json:"quantity"`
	Unit              string     `json:"unit,omitempty"`
	State             string     `json:"chemical_state,omitempty"`
	HazardInformation string     `json:"hazard_information,omitempty"`
	ReactivityGroup   string     `json:"reactivity_group,omitempty"`
	ChemicalType      string     `json:"chemical_type,omitempty"`
	Vendor            string     `json:"vendor,omitempty"`
	LocationID        string     `json:"location_id,omitempty"`
	LocationName      string     `json:"location_name,omitempty"`
	Expires           *Date      `json:"expires,omitempty"`
	DateRegistered    *Date      `json:"date_registered,omitempty"`
	CreatedBy         string     `json:"created_by,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	IsActive          bool       `json:"is_active"`
}

func (c Chemical) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if c.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	return nil
}

// Expired reports whether the chemical has passed its expiry date on the given day.
func (c Chemical) Expired(now time.Time) bool {
	if c.Expires == nil || c.Expires.IsZero() {
		return false
	}
	today := NewDate(now.Year(), now.Month(), now.Day())
	return c.Expires.Before(today.Time)
}

type ChemicalFilter struct {
	Name        string
	CASNumber   string
	LocationID  string
	State       string
	HazardClass string
	LowStock    *bool
	Expired     *bool
	IsActive    *bool
}

type ChemicalPatch struct {
	Name              *string  `json:"name,omitempty"`
	Description       *string  `json:"description,omitempty"`
	CASNumber         *string  `json:"cas_number,omitempty"`
	MolecularFormula  *string  `json:"molecular_formula,omitempty"`
	Quantity          *float64 `json:"quantity,omitempty"`
	Unit              *string  `json:"unit,omitempty"`
	State             *string  `json:"chemical_state,omitempty"`
	HazardInformation *string  `json:"hazard_information,omitempty"`
	ReactivityGroup   *string  `json:"reactivity_group,omitempty"`
	ChemicalType      *string  `json:"chemical_type,omitempty"`
	Vendor            *string  `json:"vendor,omitempty"`
	LocationID        *string  `json:"location_id,omitempty"`
	Expires           *Date    `json:"expires,omitempty"`
	IsActive          *bool    `json:"is_active,omitempty"`
}

func (p ChemicalPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be blank"}
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	return nil
}

// Apply returns c with every set field of p copied over.
func (p ChemicalPatch) Apply(c Chemical) Chemical {
	setString(&c.Name, p.Name)
	setString(&c.Description, p.Description)
	setString(&c.CASNumber, p.CASNumber)
	setString(&c.MolecularFormula, p.MolecularFormula)
	setString(&c.Unit, p.Unit)
	setString(&c.State, p.State)
	setString(&c.HazardInformation, p.HazardInformation)
	setString(&c.ReactivityGroup, p.ReactivityGroup)
	setString(&c.ChemicalType, p.ChemicalType)
	setString(&c.Vendor, p.Vendor)
	setString(&c.LocationID, p.LocationID)
	if p.Quantity != nil {
		c.Quantity = *p.Quantity
	}
	if p.Expires != nil {
		expires := *p.Expires
		c.Expires = &expires
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	return c
}

type Location struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Building          string `json:"building,omitempty"`
	RoomNumber        string `json:"room_number,omitempty"`
	StorageType       string `json:"storage_type,omitempty"`
	StorageConditions string `json:"storage_conditions,omitempty"`
	MaxCapacity       *int   `json:"max_capacity,omitempty"`
	CurrentCapacity   *int   `json:"current_capacity,omitempty"`
	IsActive          bool   `json:"is_active"`
}

func (l Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	return checkCapacity(l.CurrentCapacity, l.MaxCapacity)
}

type LocationPatch struct {
	Name              *string `json:"name,omitempty"`
	Description       *string `json:"description,omitempty"`
	Building          *string `json:"building,omitempty"`
	RoomNumber        *string `json:"room_number,omitempty"`
	StorageType       *string `json:"storage_type,omitempty"`
	StorageConditions *string `json:"storage_conditions,omitempty"`
	MaxCapacity       *int    `json:"max_capacity,omitempty"`
	CurrentCapacity   *int    `json:"current_capacity,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
}

func (p LocationPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be blank"}
	}
	return checkCapacity(p.CurrentCapacity, p.MaxCapacity)
}

func (p LocationPatch) Apply(l Location) Location {
	setString(&l.Name, p.Name)
	setString(&l.Description, p.Description)
	setString(&l.Building, p.Building)
	setString(&l.RoomNumber, p.RoomNumber)
	setString(&l.StorageType, p.StorageType)
	setString(&l.StorageConditions, p.StorageConditions)
	if p.MaxCapacity != nil {
		v := *p.MaxCapacity
		l.MaxCapacity = &v
	}
	if p.CurrentCapacity != nil {
		v := *p.CurrentCapacity
		l.CurrentCapacity = &v
	}
	if p.IsActive != nil {
		l.IsActive = *p.IsActive
	}
	return l
}

func checkCapacity(current, max *int) error {
	if current != nil && *current < 0 {
		return &ValidationError{Field: "current_capacity", Message: "must not be negative"}
	}
	if max != nil && *max < 0 {
		return &ValidationError{Field: "max_capacity", Message: "must not be negative"}
	}
	if current != nil && max != nil && *current > *max {
		return &ValidationError{Field: "current_capacity", Message: "must not exceed max_capacity"}
	}
	return nil
}

// LocationLabel resolves id to a location name, falling back to the raw id.
func LocationLabel(locations []Location, id string) string {
	for _, loc := range locations {
		if loc.ID == id && loc.Name != "" {
			return loc.Name
		}
	}
	return id
}

type User struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	JoinDate  time.Time  `json:"join_date"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		JoinDate  timestamp `json:"join_date"`
		LastLogin timestamp `json:"last_login"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.JoinDate = aux.JoinDate.t
	u.LastLogin = nil
	if aux.LastLogin.valid {
		last := aux.LastLogin.t
		u.LastLogin = &last
	}
	return nil
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanView reports whether viewer may open target's record: admins see everyone,
// attendants only themselves.
func CanView(viewer, target User) bool {
	return viewer.IsAdmin() || viewer.ID == target.ID
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleAttendant
}

type UserInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  *bool  `json:"is_active,omitempty"`
	Password  string `json:"password,omitempty"`
}

func (in UserInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if !ValidRole(in.Role) {
		return &ValidationError{Field: "role", Message: "must be admin or attendant"}
	}
	return nil
}

type UserPatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Role      *string `json:"role,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

func (p UserPatch) Validate() error {
	if p.Role != nil && !ValidRole(*p.Role) {
		return &ValidationError{Field: "role", Message: "must be admin or attendant"}
	}
	if p.Email != nil && strings.TrimSpace(*p.Email) == "" {
		return &ValidationError{Field: "email", Message: "must not be blank"}
	}
	return nil
}

func (p UserPatch) Apply(u User) User {
	setString(&u.FirstName, p.FirstName)
	setString(&u.LastName, p.LastName)
	setString(&u.Email, p.Email)
	setString(&u.Role, p.Role)
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	return u
}

type QRCode struct {
	ID           string    `json:"id"`
	ChemicalID   string    `json:"chemical_id"`
	ChemicalName string    `json:"chemical_name"`
	DateCreated  time.Time `json:"date_created"`
	CreatedBy    string    `json:"created_by"`
}

func (q *QRCode) UnmarshalJSON(data []byte) error {
	type plain QRCode
	aux := struct {
		*plain
		DateCreated timestamp `json:"date_created"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	q.DateCreated = aux.DateCreated.t
	return nil
}

type DashboardOverview struct {
	TotalChemicals     int              `json:"total_chemicals"`
	ExpiredChemicals   int              `json:"expired_chemicals"`
	LowStockAlerts     int              `json:"low_stock_alerts"`
	MonthlyUsageChange float64          `json:"monthly_usage_change"`
	RecentActivity     []RecentActivity `json:"recent_activity"`
	UsageTrends        []UsageTrend     `json:"usage_trends"`
}

type RecentActivity struct {
	Action    string `json:"action"`
	Chemical  string `json:"chemical"`
	Quantity  string `json:"quantity"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

type UsageTrend struct {
	Month string  `json:"month"`
	Usage float64 `json:"usage"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
