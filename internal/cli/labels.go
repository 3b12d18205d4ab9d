package cli

import (
	"context"
	"fmt"
	"time"

	"chemoventry/internal/labels"
	"chemoventry/internal/models"
)

// qr works on the local label cache unless -remote asks for the backend's QR resource.
func (a *app) qr(ctx context.Context, args []string) error {
	sub, args, err := subcommand("qr", args, "list|get|generate|delete|sync|watch")
	if err != nil {
		return err
	}
	fs := newFlagSet("qr "+sub, a.stderr)
	remote := fs.Bool("remote", false, "use the backend QR resource instead of the local labels")

	switch sub {
	case "list":
		if _, err := parse(fs, args); err != nil {
			return err
		}
		var codes []models.QRCode
		if *remote {
			codes, err = a.catalog.QRCodes.ListQRCodes(ctx)
		} else {
			var svc *labels.Service
			if svc, err = a.labelService(ctx); err == nil {
				codes, err = svc.List(ctx)
			}
		}
		if err != nil {
			return err
		}
		return a.printQRCodes(codes)

	case "get":
		id, err := oneArg(fs, args, "label id")
		if err != nil {
			return err
		}
		var code models.QRCode
		if *remote {
			code, err = a.catalog.QRCodes.GetQRCode(ctx, id)
		} else {
			var svc *labels.Service
			if svc, err = a.labelService(ctx); err == nil {
				code, err = svc.Get(ctx, id)
			}
		}
		if err != nil {
			return err
		}
		return a.printQRCodes([]models.QRCode{code})

	case "generate":
		name := fs.String("name", "", "chemical name, looked up when empty")
		chemicalID, err := oneArg(fs, args, "chemical id")
		if err != nil {
			return err
		}
		if *name == "" {
			chemical, err := a.catalog.Chemicals.GetChemical(ctx, chemicalID)
			if err != nil {
				return err
			}
			*name = chemical.Name
		}
		var code models.QRCode
		if *remote {
			code, err = a.catalog.QRCodes.CreateQRCode(ctx, chemicalID, *name)
		} else {
			var svc *labels.Service
			if svc, err = a.labelService(ctx); err == nil {
				code, err = svc.Generate(ctx, chemicalID, *name, a.currentUserID(ctx))
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "generated label %s for %s\n", code.ID, code.ChemicalName)
		return nil

	case "delete":
		id, err := oneArg(fs, args, "label id")
		if err != nil {
			return err
		}
		if *remote {
			err = a.catalog.QRCodes.DeleteQRCode(ctx, id)
		} else {
			var svc *labels.Service
			if svc, err = a.labelService(ctx); err == nil {
				err = svc.Delete(ctx, id)
			}
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "deleted label %s\n", id)
		return nil

	case "sync":
		if _, err := parse(fs, args); err != nil {
			return err
		}
		svc, err := a.labelService(ctx)
		if err != nil {
			return err
		}
		removed, err := svc.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "removed %d stale labels\n", removed)
		return nil

	case "watch":
		interval := fs.Duration("interval", a.cfg.SyncInterval, "time between syncs")
		if _, err := parse(fs, args); err != nil {
			return err
		}
		if *interval <= 0 {
			return usageError("qr watch needs a positive -interval")
		}
		svc, err := a.labelService(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "syncing labels every %s\n", *interval)
		labels.Start(ctx, *interval, svc)
		return nil
	}
	return usageError("unknown qr command " + sub)
}

// currentUserID is best effort; labels made without a session carry no author.
func (a *app) currentUserID(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	user, err := a.catalog.Users.CurrentUser(ctx)
	if err != nil {
		return ""
	}
	return user.ID
}
