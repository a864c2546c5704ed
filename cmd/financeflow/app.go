package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"financeflow/internal/api"
	"financeflow/internal/backend"
	"financeflow/internal/cli"
	"financeflow/internal/controllers"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/ports"
	"financeflow/internal/session"
	"financeflow/internal/terminal"
)

const usage = `Usage: financeflow <command> [flags]

Commands:
  login <token>                 store the session credential
  logout                        end the session
  list                          show all transactions
  add -amount N [-type T] [-note S] [-date YYYY-MM-DD]
                                create a transaction (type: income|expense)
  delete [-yes] <id>            delete a transaction after confirmation
  export                        write the ledger to the configured Google Sheet
`

var errUsage = errors.New("usage")

type app struct {
	logger  *log.Logger
	in      io.Reader
	out     io.Writer
	session *session.Session
	guard   *session.Guard
	nav     *terminal.Navigator
	client  *api.Client
	events  ports.EventPublisher
	export  ports.LedgerExporter
}

// run executes one command and returns the process exit code: 2 for usage
// errors, 1 for start-up failures. Failures of the command itself are shown
// to the user and do not change the exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(errOut, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	logger := cli.SetupLogger(cfg.LogLevel, errOut)

	ctx, stop := cli.GracefulShutdown(ctx, logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		return 1
	}
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		return 1
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err)
		}
	}()

	sess := session.New(res.Credentials, logger)
	if err := sess.Restore(ctx); err != nil {
		logger.Error("Failed to restore session", log.FieldError, err)
		return 1
	}

	client, err := api.NewClient(cfg.APIBaseURL, sess,
		api.WithLogger(logger),
		api.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		logger.Error("Failed to create API client", log.FieldError, err)
		return 1
	}

	nav := terminal.NewNavigator(out, logger)
	a := &app{
		logger:  logger,
		in:      in,
		out:     out,
		session: sess,
		guard:   session.NewGuard(sess, nav, res.Events, logger),
		nav:     nav,
		client:  client,
		events:  res.Events,
		export:  res.Exporter,
	}

	err = a.dispatch(ctx, args[0], args[1:])
	switch {
	case errors.Is(err, errUsage):
		if err != errUsage {
			fmt.Fprintln(errOut, "error:", err)
		}
		fmt.Fprint(errOut, usage)
		return 2
	case err != nil:
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.guard.Logout(ctx)
		return nil
	case "list":
		return a.list(ctx)
	case "add":
		return a.add(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "export":
		return a.exportLedger(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.session.Set(ctx, args[0]); err != nil {
		if errors.Is(err, session.ErrEmptyToken) {
			return errUsage
		}
		return err
	}
	fmt.Fprintln(a.out, "Signed in.")
	return nil
}

func (a *app) dashboard(assumeYes bool) *controllers.Dashboard {
	confirm := terminal.NewConfirmer(a.in, a.out, assumeYes)
	return controllers.NewDashboard(a.client, a.guard, confirm, a.events, a.logger)
}

// mount loads the dashboard and reports whether it can be used further.
func (a *app) mount(ctx context.Context, d *controllers.Dashboard) (bool, error) {
	_ = d.Mount(ctx)
	st := d.State()
	if st.Ended {
		return false, nil
	}
	if st.Phase != controllers.PhaseLoaded {
		return false, terminal.RenderDashboard(a.out, st)
	}
	return true, nil
}

func (a *app) list(ctx context.Context) error {
	d := a.dashboard(false)
	if ok, err := a.mount(ctx, d); !ok {
		return err
	}
	return terminal.RenderDashboard(a.out, d.State())
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	amount := fs.String("amount", "", "amount, greater than 0")
	typ := fs.String("type", string(core.Expense), "income or expense")
	note := fs.String("note", "", "optional note")
	date := fs.String("date", "", "date as YYYY-MM-DD, default today")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return errUsage
	}

	t, err := core.ParseTransactionType(*typ)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	c := controllers.NewCreation(a.client, a.guard, a.nav, a.events, a.logger)
	c.SetAmount(*amount)
	c.SetType(t)
	c.SetNote(*note)
	if strings.TrimSpace(*date) != "" {
		c.SetDate(core.Date(strings.TrimSpace(*date)))
	}

	_ = c.Submit(ctx)
	return terminal.RenderCreation(a.out, c.State())
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	id := core.ID(fs.Arg(0))

	d := a.dashboard(*yes)
	if ok, err := a.mount(ctx, d); !ok {
		return err
	}

	err := d.Delete(ctx, id)
	switch {
	case errors.Is(err, controllers.ErrDeleteDeclined):
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	case d.State().Ended:
		return nil
	}
	return terminal.RenderDashboard(a.out, d.State())
}

func (a *app) exportLedger(ctx context.Context) error {
	if a.export == nil {
		return errors.New("export is not configured (set GOOGLE_SPREADSHEET_ID and service account credentials)")
	}

	d := a.dashboard(false)
	if ok, err := a.mount(ctx, d); !ok {
		return err
	}

	txs := d.State().Transactions
	ref, err := a.export.Export(ctx, txs)
	if err != nil {
		a.logger.Error("Export failed", log.FieldOperation, log.OpExport, log.FieldError, err)
		fmt.Fprintln(a.out, "Error: Failed to export transactions")
		return nil
	}
	fmt.Fprintf(a.out, "Exported %d transactions to %s\n", len(txs), ref)
	return nil
}
