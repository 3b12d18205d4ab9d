package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"chemoventry/internal/models"
)

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
}

func quantity(c models.Chemical) string {
	q := strconv.FormatFloat(c.Quantity, 'f', -1, 64)
	if c.Unit == "" {
		return q
	}
	return q + " " + c.Unit
}

func dateOrDash(d *models.Date) string {
	if d == nil || d.IsZero() {
		return "-"
	}
	return d.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printChemicals resolves bare location ids to names when the backend sent no name.
func (a *app) printChemicals(ctx context.Context, chemicals []models.Chemical) error {
	var locations []models.Location
	for _, c := range chemicals {
		if c.LocationName == "" && c.LocationID != "" {
			locations, _ = a.catalog.Locations.ListLocations(ctx)
			break
		}
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tQUANTITY\tSTATE\tLOCATION\tEXPIRES")
	for _, c := range chemicals {
		location := c.LocationName
		if location == "" {
			location = models.LocationLabel(locations, c.LocationID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, quantity(c), orDash(c.State), orDash(location), dateOrDash(c.Expires))
	}
	return tw.Flush()
}

func (a *app) printChemical(c models.Chemical) error {
	tw := a.table()
	fmt.Fprintf(tw, "id:\t%s\n", c.ID)
	fmt.Fprintf(tw, "name:\t%s\n", c.Name)
	fmt.Fprintf(tw, "cas number:\t%s\n", orDash(c.CASNumber))
	fmt.Fprintf(tw, "formula:\t%s\n", orDash(c.MolecularFormula))
	fmt.Fprintf(tw, "quantity:\t%s\n", quantity(c))
	fmt.Fprintf(tw, "state:\t%s\n", orDash(c.State))
	fmt.Fprintf(tw, "hazard:\t%s\n", orDash(c.HazardInformation))
	fmt.Fprintf(tw, "vendor:\t%s\n", orDash(c.Vendor))
	fmt.Fprintf(tw, "location:\t%s\n", orDash(firstOf(c.LocationName, c.LocationID)))
	fmt.Fprintf(tw, "expires:\t%s\n", dateOrDash(c.Expires))
	fmt.Fprintf(tw, "active:\t%t\n", c.IsActive)
	return tw.Flush()
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func capacity(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func (a *app) printLocations(locations []models.Location) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tBUILDING\tROOM\tCAPACITY")
	for _, l := range locations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s/%s\n", l.ID, l.Name, orDash(l.Building), orDash(l.RoomNumber), capacity(l.CurrentCapacity), capacity(l.MaxCapacity))
	}
	return tw.Flush()
}

func (a *app) printLocation(l models.Location) error {
	tw := a.table()
	fmt.Fprintf(tw, "id:\t%s\n", l.ID)
	fmt.Fprintf(tw, "name:\t%s\n", l.Name)
	fmt.Fprintf(tw, "building:\t%s\n", orDash(l.Building))
	fmt.Fprintf(tw, "room:\t%s\n", orDash(l.RoomNumber))
	fmt.Fprintf(tw, "storage:\t%s\n", orDash(firstOf(l.StorageType, l.StorageConditions)))
	fmt.Fprintf(tw, "capacity:\t%s/%s\n", capacity(l.CurrentCapacity), capacity(l.MaxCapacity))
	fmt.Fprintf(tw, "active:\t%t\n", l.IsActive)
	return tw.Flush()
}

func (a *app) printUsers(users []models.User) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", u.ID, orDash(u.FullName()), u.Email, u.Role, u.IsActive)
	}
	return tw.Flush()
}

func (a *app) printUser(u models.User) error {
	tw := a.table()
	fmt.Fprintf(tw, "id:\t%s\n", u.ID)
	fmt.Fprintf(tw, "name:\t%s\n", orDash(u.FullName()))
	fmt.Fprintf(tw, "email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "role:\t%s\n", u.Role)
	if !u.JoinDate.IsZero() {
		fmt.Fprintf(tw, "joined:\t%s\n", u.JoinDate.Format("2006-01-02"))
	}
	return tw.Flush()
}

func (a *app) printQRCodes(codes []models.QRCode) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tCHEMICAL\tNAME\tCREATED\tBY")
	for _, c := range codes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.ChemicalID, c.ChemicalName, c.DateCreated.Format(time.RFC3339), orDash(c.CreatedBy))
	}
	return tw.Flush()
}

func (a *app) printOverview(o models.DashboardOverview) error {
	tw := a.table()
	fmt.Fprintf(tw, "total chemicals:\t%d\n", o.TotalChemicals)
	fmt.Fprintf(tw, "expired:\t%d\n", o.ExpiredChemicals)
	fmt.Fprintf(tw, "low stock alerts:\t%d\n", o.LowStockAlerts)
	fmt.Fprintf(tw, "monthly usage change:\t%+.1f%%\n", o.MonthlyUsageChange)
	if len(o.RecentActivity) > 0 {
		fmt.Fprintln(tw, "\nACTION\tCHEMICAL\tQUANTITY\tUSER\tWHEN")
		for _, act := range o.RecentActivity {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", act.Action, act.Chemical, act.Quantity, act.User, act.Timestamp)
		}
	}
	return tw.Flush()
}
