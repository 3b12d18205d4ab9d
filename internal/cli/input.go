package cli

import (
	"flag"

	"chemoventry/internal/models"
)

type chemicalFlags struct {
	name, description, cas, formula string
	quantity                        float64
	unit, state, hazard, reactivity string
	kind, vendor, location, expires string
	inactive                        bool
}

func bindChemical(fs *flag.FlagSet) *chemicalFlags {
	f := &chemicalFlags{}
	fs.StringVar(&f.name, "name", "", "chemical name")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.cas, "cas", "", "CAS number")
	fs.StringVar(&f.formula, "formula", "", "molecular formula")
	fs.Float64Var(&f.quantity, "quantity", 0, "quantity on hand")
	fs.StringVar(&f.unit, "unit", "", "unit of measure")
	fs.StringVar(&f.state, "state", "", "Solid, Liquid or Gas")
	fs.StringVar(&f.hazard, "hazard", "", "hazard information")
	fs.StringVar(&f.reactivity, "reactivity", "", "reactivity group")
	fs.StringVar(&f.kind, "type", "", "chemical type")
	fs.StringVar(&f.vendor, "vendor", "", "vendor")
	fs.StringVar(&f.location, "location", "", "location id")
	fs.StringVar(&f.expires, "expires", "", "expiry date YYYY-MM-DD")
	fs.BoolVar(&f.inactive, "inactive", false, "mark inactive")
	return f
}

func (f *chemicalFlags) chemical() (models.Chemical, error) {
	c := models.Chemical{
		Name:              f.name,
		Description:       f.description,
		CASNumber:         f.cas,
		MolecularFormula:  f.formula,
		Quantity:          f.quantity,
		Unit:              f.unit,
		State:             f.state,
		HazardInformation: f.hazard,
		ReactivityGroup:   f.reactivity,
		ChemicalType:      f.kind,
		Vendor:            f.vendor,
		LocationID:        f.location,
		IsActive:          !f.inactive,
	}
	if f.expires != "" {
		expires, err := models.ParseDate(f.expires)
		if err != nil {
			return models.Chemical{}, &models.ValidationError{Field: "expires", Message: err.Error()}
		}
		c.Expires = &expires
	}
	return c, nil
}

// patch carries only the flags given on the command line.
func (f *chemicalFlags) patch(set map[string]bool) (models.ChemicalPatch, error) {
	var p models.ChemicalPatch
	strs := map[string]struct {
		dst **string
		val *string
	}{
		"name":        {&p.Name, &f.name},
		"description": {&p.Description, &f.description},
		"cas":         {&p.CASNumber, &f.cas},
		"formula":     {&p.MolecularFormula, &f.formula},
		"unit":        {&p.Unit, &f.unit},
		"state":       {&p.State, &f.state},
		"hazard":      {&p.HazardInformation, &f.hazard},
		"reactivity":  {&p.ReactivityGroup, &f.reactivity},
		"type":        {&p.ChemicalType, &f.kind},
		"vendor":      {&p.Vendor, &f.vendor},
		"location":    {&p.LocationID, &f.location},
	}
	for name, field := range strs {
		if set[name] {
			*field.dst = field.val
		}
	}
	if set["quantity"] {
		p.Quantity = &f.quantity
	}
	if set["inactive"] {
		active := !f.inactive
		p.IsActive = &active
	}
	if set["expires"] {
		expires, err := models.ParseDate(f.expires)
		if err != nil {
			return models.ChemicalPatch{}, &models.ValidationError{Field: "expires", Message: err.Error()}
		}
		p.Expires = &expires
	}
	return p, nil
}

type locationFlags struct {
	name, description, building, room string
	storageType, conditions            string
	max, current                       int
	inactive                           bool
}

func bindLocation(fs *flag.FlagSet) *locationFlags {
	f := &locationFlags{}
	fs.StringVar(&f.name, "name", "", "location name")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.building, "building", "", "building")
	fs.StringVar(&f.room, "room", "", "room number")
	fs.StringVar(&f.storageType, "storage-type", "", "storage type")
	fs.StringVar(&f.conditions, "conditions", "", "storage conditions")
	fs.IntVar(&f.max, "max", 0, "maximum capacity")
	fs.IntVar(&f.current, "current", 0, "current capacity")
	fs.BoolVar(&f.inactive, "inactive", false, "mark inactive")
	return f
}

func (f *locationFlags) location(set map[string]bool) models.Location {
	l := models.Location{
		Name:              f.name,
		Description:       f.description,
		Building:          f.building,
		RoomNumber:        f.room,
		StorageType:       f.storageType,
		StorageConditions: f.conditions,
		IsActive:          !f.inactive,
	}
	if set["max"] {
		l.MaxCapacity = &f.max
	}
	if set["current"] {
		l.CurrentCapacity = &f.current
	}
	return l
}

func (f *locationFlags) patch(set map[string]bool) models.LocationPatch {
	var p models.LocationPatch
	if set["name"] {
		p.Name = &f.name
	}
	if set["description"] {
		p.Description = &f.description
	}
	if set["building"] {
		p.Building = &f.building
	}
	if set["room"] {
		p.RoomNumber = &f.room
	}
	if set["storage-type"] {
		p.StorageType = &f.storageType
	}
	if set["conditions"] {
		p.StorageConditions = &f.conditions
	}
	if set["max"] {
		p.MaxCapacity = &f.max
	}
	if set["current"] {
		p.CurrentCapacity = &f.current
	}
	if set["inactive"] {
		active := !f.inactive
		p.IsActive = &active
	}
	return p
}
