// Package cli is the chemoctl command line client.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"chemoventry/internal/apiclient"
	"chemoventry/internal/auth"
	"chemoventry/internal/config"
	"chemoventry/internal/labels"
	"chemoventry/internal/models"
	"chemoventry/internal/reports"
	"chemoventry/internal/store"
	"chemoventry/internal/store/file"
	"chemoventry/internal/store/fixture"
	"chemoventry/internal/store/postgres"
	"chemoventry/internal/store/rest"
	"chemoventry/internal/tokenstore"

	"github.com/jackc/pgx/v5/pgxpool"
)

const usage = `usage: chemoctl [-config file] [-offline] <command> [flags]

commands:
  login -email <email> [-password <password>]
  logout
  whoami
  chemicals list|get|create|update|delete
  locations list|get|create|update|delete
  users     list|get|create|update|delete
  qr        list|get|generate|delete|sync|watch
  dashboard
  report    inventory|usage|expiry|low-stock
`

var errOffline = errors.New("this command needs the backend, run it without -offline")

type usageError string

func (e usageError) Error() string { return string(e) }

type app struct {
	cfg     config.Config
	offline bool
	command string
	stdout  io.Writer
	stderr  io.Writer

	client  *apiclient.Client
	session *auth.Manager
	catalog store.Catalog
	reports *reports.Service

	// inventory is what label sync reconciles against; never the fallback catalog.
	inventory store.ChemicalStore

	labels  *labels.Service
	closers []func()
}

// Run executes one chemoctl invocation and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)

	fs := flag.NewFlagSet("chemoctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "optional YAML config file")
	offline := fs.Bool("offline", false, "answer from the built-in dataset without calling the backend")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	cmdArgs := fs.Args()
	if len(cmdArgs) == 0 {
		fs.Usage()
		return 2
	}

	cfg := config.Load()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "config: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	a := &app{cfg: cfg, offline: *offline, command: cmdArgs[0], stdout: stdout, stderr: stderr}
	a.wire()
	defer a.close()
	return a.exitCode(a.dispatch(ctx, cmdArgs[0], cmdArgs[1:]))
}

func (a *app) wire() {
	tokens := tokenstore.NewFile(a.cfg.TokenFile)
	a.client = apiclient.New(a.cfg.APIURL, tokens, apiclient.WithTimeout(a.cfg.HTTPTimeout))
	live := rest.New(a.client)
	a.session = auth.NewManager(a.client, live, auth.NavigatorFunc(a.navigate))
	a.reports = reports.NewService(a.client)

	offline := fixture.New().Catalog()
	if a.offline {
		a.catalog = offline
		a.inventory = offline.Chemicals
		return
	}
	a.catalog = store.Select(a.cfg.Environment, live.Catalog(), offline)
	a.inventory = live
}

// labelService opens the label store on first use: PostgreSQL when a database
// is configured, the JSON file otherwise.
func (a *app) labelService(ctx context.Context) (*labels.Service, error) {
	if a.labels != nil {
		return a.labels, nil
	}
	var labelStore store.LabelStore
	if a.cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		pg := postgres.NewLabelStore(pool, a.cfg.LabelStoreName)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("label schema: %w", err)
		}
		labelStore = pg
	} else {
		labelStore = file.NewLabelStore(a.cfg.LabelFile, a.cfg.LabelStoreName)
	}
	a.labels = labels.NewService(labelStore, a.inventory)
	return a.labels, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) navigate(target string) {
	if target == auth.LoginPath && a.command != "logout" {
		fmt.Fprintln(a.stderr, "session ended, run `chemoctl login` to sign in again")
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "chemicals":
		return a.chemicals(ctx, args)
	case "locations":
		return a.locations(ctx, args)
	case "users":
		return a.users(ctx, args)
	case "qr", "labels":
		return a.qr(ctx, args)
	case "dashboard":
		return a.dashboard(ctx)
	case "report":
		return a.report(ctx, args)
	case "help":
		fmt.Fprint(a.stdout, usage)
		return nil
	}
	return usageError("unknown command " + command)
}

func (a *app) exitCode(err error) int {
	if err == nil {
		return 0
	}
	var (
		usageErr   usageError
		validation *models.ValidationError
	)
	switch {
	case errors.As(err, &usageErr):
		fmt.Fprintf(a.stderr, "chemoctl: %s\n\n%s", usageErr, usage)
		return 2
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintln(a.stderr, err.Error())
	case errors.Is(err, apiclient.ErrForbidden):
		fmt.Fprintln(a.stderr, "permission denied: your role cannot perform this action")
	case errors.Is(err, apiclient.ErrSessionExpired), errors.Is(err, auth.ErrNotAuthenticated):
		fmt.Fprintln(a.stderr, "not logged in or session expired, run `chemoctl login`")
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrMissingCredentials):
		fmt.Fprintln(a.stderr, err.Error())
	case errors.As(err, &validation):
		fmt.Fprintf(a.stderr, "invalid input: %s\n", validation)
	default:
		fmt.Fprintf(a.stderr, "error: %v\n", err)
	}
	return 1
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// parse lets positional arguments sit before, between or after the flags.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, usageError(fs.Name() + ": " + err.Error())
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func oneArg(fs *flag.FlagSet, args []string, what string) (string, error) {
	positional, err := parse(fs, args)
	if err != nil {
		return "", err
	}
	if len(positional) != 1 || strings.TrimSpace(positional[0]) == "" {
		return "", usageError(fmt.Sprintf("%s needs exactly one %s", fs.Name(), what))
	}
	return positional[0], nil
}

func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func subcommand(group string, args []string, allowed string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, usageError(fmt.Sprintf("%s needs one of %s", group, allowed))
	}
	return args[0], args[1:], nil
}
