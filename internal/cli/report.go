package cli

import (
	"context"
	"fmt"

	"chemoventry/internal/models"
	"chemoventry/internal/reports"
)

func (a *app) report(ctx context.Context, args []string) error {
	if a.offline {
		return errOffline
	}
	fs := newFlagSet("report", a.stderr)
	format := fs.String("format", "pdf", "pdf or excel")
	from := fs.String("from", "", "start date YYYY-MM-DD")
	to := fs.String("to", "", "end date YYYY-MM-DD")
	days := fs.Int("days", 0, "expiry window in days")
	threshold := fs.Int("threshold", 0, "low stock threshold")
	location := fs.String("location", "", "location filter")
	chemicalID := fs.String("chemical", "", "chemical id")
	userID := fs.String("user", "", "user id")
	out := fs.String("out", ".", "directory to save the report in")

	kindArg, err := oneArg(fs, args, "report type")
	if err != nil {
		return err
	}
	kind, err := reports.ParseKind(kindArg)
	if err != nil {
		return usageError(err.Error())
	}
	opts := reports.Options{
		Days:       *days,
		Threshold:  *threshold,
		Location:   *location,
		ChemicalID: *chemicalID,
		UserID:     *userID,
	}
	if opts.Format, err = reports.ParseFormat(*format); err != nil {
		return usageError(err.Error())
	}
	if *from != "" {
		d, err := models.ParseDate(*from)
		if err != nil {
			return usageError("report -from: " + err.Error())
		}
		opts.From = d.Time
	}
	if *to != "" {
		d, err := models.ParseDate(*to)
		if err != nil {
			return usageError("report -to: " + err.Error())
		}
		opts.To = d.Time
	}

	report, err := a.reports.Generate(ctx, kind, opts)
	if err != nil {
		return err
	}
	path, err := reports.Save(*out, report)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "saved %s (%d bytes)\n", path, len(report.Data))
	return nil
}
