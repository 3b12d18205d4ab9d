package fixture

import (
	"time"

	"chemoventry/internal/models"
)

func seedChemicals() []models.Chemical {
	return []models.Chemical{
		{
			ID:                "1",
			Name:              "Sodium Chloride",
			Description:       "Common salt used for buffer preparation",
			CASNumber:         "7647-14-5",
			MolecularFormula:  "NaCl",
			Quantity:          500,
			Unit:              "g",
			State:             models.StateSolid,
			HazardInformation: "Low hazard",
			ReactivityGroup:   "Salts",
			ChemicalType:      "Inorganic",
			Vendor:            "Sigma-Aldrich",
			LocationID:        "1",
			LocationName:      "Lab A",
			Expires:           datePtr(2027, time.December, 31),
			DateRegistered:    datePtr(2024, time.January, 15),
			CreatedBy:         "1",
			IsActive:          true,
		},
		{
			ID:                "2",
			Name:              "Ethanol",
			Description:       "Absolute ethanol for extraction",
			CASNumber:         "64-17-5",
			MolecularFormula:  "C2H5OH",
			Quantity:          2.5,
			Unit:              "L",
			State:             models.StateLiquid,
			HazardInformation: "Flammable liquid",
			ReactivityGroup:   "Alcohols",
			ChemicalType:      "Organic",
			Vendor:            "Fisher Scientific",
			LocationID:        "3",
			LocationName:      "Storage Room 1",
			Expires:           datePtr(2026, time.June, 30),
			DateRegistered:    datePtr(2024, time.February, 3),
			CreatedBy:         "1",
			IsActive:          true,
		},
		{
			ID:                "3",
			Name:              "Hydrochloric Acid",
			Description:       "37% solution",
			CASNumber:         "7647-01-0",
			MolecularFormula:  "HCl",
			Quantity:          1,
			Unit:              "L",
			State:             models.StateLiquid,
			HazardInformation: "Corrosive",
			ReactivityGroup:   "Acids",
			ChemicalType:      "Inorganic",
			Vendor:            "Merck",
			LocationID:        "2",
			LocationName:      "Lab B",
			Expires:           datePtr(2028, time.March, 1),
			DateRegistered:    datePtr(2024, time.March, 12),
			CreatedBy:         "2",
			IsActive:          true,
		},
	}
}

func seedLocations() []models.Location {
	return []models.Location{
		{ID: "1", Name: "Lab A", Description: "Main teaching laboratory", Building: "Science Block", RoomNumber: "101", StorageType: "Shelf", StorageConditions: "Room temperature", MaxCapacity: intPtr(100), CurrentCapacity: intPtr(40), IsActive: true},
		{ID: "2", Name: "Lab B", Description: "Research laboratory", Building: "Science Block", RoomNumber: "102", StorageType: "Acid cabinet", StorageConditions: "Ventilated", MaxCapacity: intPtr(50), CurrentCapacity: intPtr(12), IsActive: true},
		{ID: "3", Name: "Storage Room 1", Description: "Flammables store", Building: "Annex", RoomNumber: "S1", StorageType: "Flammables cabinet", StorageConditions: "Below 25C", MaxCapacity: intPtr(200), CurrentCapacity: intPtr(75), IsActive: true},
		{ID: "4", Name: "Storage Room 2", Description: "General store", Building: "Annex", RoomNumber: "S2", StorageType: "Shelf", StorageConditions: "Dry", MaxCapacity: intPtr(200), CurrentCapacity: intPtr(0), IsActive: true},
	}
}

func seedUsers() []models.User {
	return []models.User{
		{ID: "1", FirstName: "John", LastName: "Doe", Email: "john@example.com", Role: models.RoleAdmin, IsActive: true, JoinDate: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "2", FirstName: "Jane", LastName: "Smith", Email: "jane@example.com", Role: models.RoleAttendant, IsActive: true, JoinDate: time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)},
	}
}

func seedQRCodes() []models.QRCode {
	return []models.QRCode{
		{ID: "1", ChemicalID: "1", ChemicalName: "Sodium Chloride", DateCreated: time.Date(2024, time.January, 16, 10, 0, 0, 0, time.UTC), CreatedBy: "1"},
		{ID: "2", ChemicalID: "2", ChemicalName: "Ethanol", DateCreated: time.Date(2024, time.February, 4, 10, 0, 0, 0, time.UTC), CreatedBy: "1"},
	}
}

func seedActivity() []models.RecentActivity {
	return []models.RecentActivity{
		{Action: "Added", Chemical: "Sodium Chloride", Quantity: "500 g", User: "John Doe", Timestamp: "2 hours ago"},
		{Action: "Used", Chemical: "Ethanol", Quantity: "250 mL", User: "Jane Smith", Timestamp: "5 hours ago"},
		{Action: "Updated", Chemical: "Hydrochloric Acid", Quantity: "1 L", User: "John Doe", Timestamp: "1 day ago"},
	}
}

func seedTrends() []models.UsageTrend {
	return []models.UsageTrend{
		{Month: "Jan", Usage: 65},
		{Month: "Feb", Usage: 59},
		{Month: "Mar", Usage: 80},
		{Month: "Apr", Usage: 81},
		{Month: "May", Usage: 56},
		{Month: "Jun", Usage: 55},
	}
}

func datePtr(year int, month time.Month, day int) *models.Date {
	d := models.NewDate(year, month, day)
	return &d
}

func intPtr(v int) *int {
	return &v
}
