// Package reports downloads generated inventory reports from the backend.
package reports

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"chemoventry/internal/apiclient"
)

type Kind string

const (
	Inventory Kind = "inventory"
	Usage     Kind = "usage"
	Expiry    Kind = "expiry"
	LowStock  Kind = "low-stock"
)

var Kinds = []Kind{Inventory, Usage, Expiry, LowStock}

type Format string

const (
	PDF   Format = "pdf"
	Excel Format = "excel"
)

const (
	pdfContentType   = "application/pdf"
	excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout       = "2006-01-02"
)

var (
	ErrUnknownKind   = errors.New("unknown report type")
	ErrUnknownFormat = errors.New("unknown report format")
)

func ParseKind(value string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == value {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKind, value)
}

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "pdf":
		return PDF, nil
	case "excel", "xlsx":
		return Excel, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
}

func (f Format) Extension() string {
	if f == Excel {
		return "xlsx"
	}
	return "pdf"
}

func (f Format) ContentType() string {
	if f == Excel {
		return excelContentType
	}
	return pdfContentType
}

// Options are the per-kind filters. Zero values are left out of the request.
type Options struct {
	Format     Format
	From       time.Time
	To         time.Time
	Days       int
	Threshold  int
	Location   string
	ChemicalID string
	UserID     string
}

// Query encodes the options. The date range is sent only when both ends are set.
func (o Options) Query() url.Values {
	q := url.Values{}
	format := o.Format
	if format == "" {
		format = PDF
	}
	q.Set("format", string(format))
	if !o.From.IsZero() && !o.To.IsZero() {
		q.Set("start_date", o.From.Format(dateLayout))
		q.Set("end_date", o.To.Format(dateLayout))
	}
	if o.Days > 0 {
		q.Set("days", strconv.Itoa(o.Days))
	}
	if o.Threshold > 0 {
		q.Set("threshold", strconv.Itoa(o.Threshold))
	}
	if o.Location != "" {
		q.Set("location", o.Location)
	}
	if o.ChemicalID != "" {
		q.Set("chemical_id", o.ChemicalID)
	}
	if o.UserID != "" {
		q.Set("user_id", o.UserID)
	}
	return q
}

type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Error is a failed report download with the most readable message found in the response.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s report: %s (status %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s report: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func Path(kind Kind) string {
	return "/api/reports/" + string(kind) + "/"
}

func (s *Service) Generate(ctx context.Context, kind Kind, opts Options) (Report, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Report{}, err
	}
	if opts.Format == "" {
		opts.Format = PDF
	}
	resp, err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   Path(kind),
		Query:  opts.Query(),
		Blob:   true,
		Accept: opts.Format.ContentType(),
	})
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			return Report{}, &Error{Kind: kind, Status: apiErr.Status, Message: apiErr.Message, Err: err}
		}
		return Report{}, &Error{Kind: kind, Message: "failed to generate report", Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = opts.Format.ContentType()
	}
	return Report{
		Filename:    Filename(resp.Header.Get("Content-Disposition"), kind, opts.Format),
		ContentType: contentType,
		Data:        resp.Body,
	}, nil
}

func (s *Service) Inventory(ctx context.Context, opts Options) (Report, error) {
	return s.Generate(ctx, Inventory, opts)
}

func (s *Service) Usage(ctx context.Context, opts Options) (Report, error) {
	return s.Generate(ctx, Usage, opts)
}

func (s *Service) Expiry(ctx context.Context, opts Options) (Report, error) {
	return s.Generate(ctx, Expiry, opts)
}

func (s *Service) LowStock(ctx context.Context, opts Options) (Report, error) {
	return s.Generate(ctx, LowStock, opts)
}

var looseFilename = regexp.MustCompile(`filename="?([^";]+)"?`)

// Filename takes the name from a Content-Disposition header, falling back to
// "<kind>-report.<ext>".
func Filename(disposition string, kind Kind, format Format) string {
	fallback := fmt.Sprintf("%s-report.%s", kind, format.Extension())
	if strings.TrimSpace(disposition) == "" {
		return fallback
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}
	if m := looseFilename.FindStringSubmatch(disposition); m != nil {
		if name := strings.TrimSpace(strings.ReplaceAll(m[1], `"`, "")); name != "" {
			return name
		}
	}
	return fallback
}

// Save writes the report into dir and returns the file path. Directory parts of
// the report's filename are ignored.
func Save(dir string, report Report) (string, error) {
	name := filepath.Base(filepath.Clean("/" + report.Filename))
	if name == "/" || name == "." {
		return "", fmt.Errorf("save report: invalid filename %q", report.Filename)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, report.Data, 0o644); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}
