package cli

import (
	"context"
	"fmt"

	"chemoventry/internal/apiclient"
	"chemoventry/internal/models"
)

const crud = "list|get|create|update|delete"

func (a *app) chemicals(ctx context.Context, args []string) error {
	sub, args, err := subcommand("chemicals", args, crud)
	if err != nil {
		return err
	}
	chemicals := a.catalog.Chemicals
	switch sub {
	case "list":
		fs := newFlagSet("chemicals list", a.stderr)
		var filter models.ChemicalFilter
		fs.StringVar(&filter.Name, "name", "", "name contains")
		fs.StringVar(&filter.CASNumber, "cas", "", "CAS number")
		fs.StringVar(&filter.LocationID, "location", "", "location id")
		fs.StringVar(&filter.State, "state", "", "Solid, Liquid or Gas")
		fs.StringVar(&filter.HazardClass, "hazard", "", "hazard information contains")
		lowStock := fs.Bool("low-stock", false, "only low stock")
		expired := fs.Bool("expired", false, "only expired")
		if _, err := parse(fs, args); err != nil {
			return err
		}
		if *lowStock {
			filter.LowStock = lowStock
		}
		if *expired {
			filter.Expired = expired
		}
		list, err := chemicals.ListChemicals(ctx, filter)
		if err != nil {
			return err
		}
		return a.printChemicals(ctx, list)

	case "get":
		id, err := oneArg(newFlagSet("chemicals get", a.stderr), args, "chemical id")
		if err != nil {
			return err
		}
		chemical, err := chemicals.GetChemical(ctx, id)
		if err != nil {
			return err
		}
		return a.printChemical(chemical)

	case "create":
		fs := newFlagSet("chemicals create", a.stderr)
		in := bindChemical(fs)
		if _, err := parse(fs, args); err != nil {
			return err
		}
		chemical, err := in.chemical()
		if err != nil {
			return err
		}
		created, err := chemicals.CreateChemical(ctx, chemical)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "created chemical %s\n", created.ID)
		return a.printChemical(created)

	case "update":
		fs := newFlagSet("chemicals update", a.stderr)
		in := bindChemical(fs)
		id, err := oneArg(fs, args, "chemical id")
		if err != nil {
			return err
		}
		patch, err := in.patch(visited(fs))
		if err != nil {
			return err
		}
		updated, err := chemicals.UpdateChemical(ctx, id, patch)
		if err != nil {
			return err
		}
		return a.printChemical(updated)

	case "delete":
		id, err := oneArg(newFlagSet("chemicals delete", a.stderr), args, "chemical id")
		if err != nil {
			return err
		}
		if err := chemicals.DeleteChemical(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "deleted chemical %s\n", id)
		return nil
	}
	return usageError("unknown chemicals command " + sub)
}

func (a *app) locations(ctx context.Context, args []string) error {
	sub, args, err := subcommand("locations", args, crud)
	if err != nil {
		return err
	}
	locations := a.catalog.Locations
	switch sub {
	case "list":
		if _, err := parse(newFlagSet("locations list", a.stderr), args); err != nil {
			return err
		}
		list, err := locations.ListLocations(ctx)
		if err != nil {
			return err
		}
		return a.printLocations(list)

	case "get":
		id, err := oneArg(newFlagSet("locations get", a.stderr), args, "location id")
		if err != nil {
			return err
		}
		location, err := locations.GetLocation(ctx, id)
		if err != nil {
			return err
		}
		return a.printLocation(location)

	case "create":
		fs := newFlagSet("locations create", a.stderr)
		in := bindLocation(fs)
		if _, err := parse(fs, args); err != nil {
			return err
		}
		created, err := locations.CreateLocation(ctx, in.location(visited(fs)))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "created location %s\n", created.ID)
		return a.printLocation(created)

	case "update":
		fs := newFlagSet("locations update", a.stderr)
		in := bindLocation(fs)
		id, err := oneArg(fs, args, "location id")
		if err != nil {
			return err
		}
		updated, err := locations.UpdateLocation(ctx, id, in.patch(visited(fs)))
		if err != nil {
			return err
		}
		return a.printLocation(updated)

	case "delete":
		id, err := oneArg(newFlagSet("locations delete", a.stderr), args, "location id")
		if err != nil {
			return err
		}
		if err := locations.DeleteLocation(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "deleted location %s\n", id)
		return nil
	}
	return usageError("unknown locations command " + sub)
}

func (a *app) users(ctx context.Context, args []string) error {
	sub, args, err := subcommand("users", args, crud)
	if err != nil {
		return err
	}
	users := a.catalog.Users
	switch sub {
	case "list":
		if _, err := parse(newFlagSet("users list", a.stderr), args); err != nil {
			return err
		}
		viewer, err := users.CurrentUser(ctx)
		if err != nil {
			return err
		}
		list, err := users.ListUsers(ctx)
		if err != nil {
			return err
		}
		visible := make([]models.User, 0, len(list))
		for _, u := range list {
			if models.CanView(viewer, u) {
				visible = append(visible, u)
			}
		}
		return a.printUsers(visible)

	case "get":
		id, err := oneArg(newFlagSet("users get", a.stderr), args, "user id")
		if err != nil {
			return err
		}
		viewer, err := users.CurrentUser(ctx)
		if err != nil {
			return err
		}
		user, err := users.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if !models.CanView(viewer, user) {
			return fmt.Errorf("user %s: %w", id, apiclient.ErrForbidden)
		}
		return a.printUser(user)

	case "create":
		fs := newFlagSet("users create", a.stderr)
		var in models.UserInput
		fs.StringVar(&in.Email, "email", "", "email address")
		fs.StringVar(&in.FirstName, "first", "", "first name")
		fs.StringVar(&in.LastName, "last", "", "last name")
		fs.StringVar(&in.Role, "role", models.RoleAttendant, "admin or attendant")
		fs.StringVar(&in.Password, "password", "", "initial password")
		inactive := fs.Bool("inactive", false, "create the account disabled")
		if _, err := parse(fs, args); err != nil {
			return err
		}
		active := !*inactive
		in.IsActive = &active
		created, err := users.CreateUser(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "created user %s\n", created.ID)
		return a.printUser(created)

	case "update":
		fs := newFlagSet("users update", a.stderr)
		email := fs.String("email", "", "email address")
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		role := fs.String("role", "", "admin or attendant")
		active := fs.Bool("active", true, "account enabled")
		id, err := oneArg(fs, args, "user id")
		if err != nil {
			return err
		}
		set := visited(fs)
		var patch models.UserPatch
		if set["email"] {
			patch.Email = email
		}
		if set["first"] {
			patch.FirstName = first
		}
		if set["last"] {
			patch.LastName = last
		}
		if set["role"] {
			patch.Role = role
		}
		if set["active"] {
			patch.IsActive = active
		}
		updated, err := users.UpdateUser(ctx, id, patch)
		if err != nil {
			return err
		}
		return a.printUser(updated)

	case "delete":
		id, err := oneArg(newFlagSet("users delete", a.stderr), args, "user id")
		if err != nil {
			return err
		}
		if err := users.DeleteUser(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "deleted user %s\n", id)
		return nil
	}
	return usageError("unknown users command " + sub)
}

func (a *app) dashboard(ctx context.Context) error {
	overview, err := a.catalog.Dashboard.Overview(ctx)
	if err != nil {
		return err
	}
	return a.printOverview(overview)
}
