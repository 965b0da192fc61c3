// Package main is a terminal storefront: it keeps a local medicine selection,
// starts Stripe checkout against the backend and follows an order until it settles.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/infrastructure/money"
	"github.com/medico/backend/internal/storefront"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const localOwner = "local"

// options are the flags shared by every command
type options struct {
	apiURL    string
	statePath string
	currency  string
	interval  time.Duration
	verbose   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "medico", "selection.json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var opts options
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.apiURL, "api", envOr("MEDICO_API_URL", "http://localhost:3000"), "Backend base URL")
	fs.StringVar(&opts.statePath, "state", defaultStatePath(), "File holding the local selection")
	fs.StringVar(&opts.currency, "currency", "USD", "Currency used to display totals")
	fs.DurationVar(&opts.interval, "interval", storefront.DefaultPollInterval, "Order tracking poll interval")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	fs.Usage = func() { printUsage(out) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(out)
		return errors.New("no command given")
	}

	log := zap.NewNop()
	if opts.verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
	}

	client, err := storefront.NewClient(opts.apiURL)
	if err != nil {
		return err
	}
	formatter, err := money.NewFormatter(opts.currency, language.English)
	if err != nil {
		return err
	}
	cli := &app{
		client:    client,
		store:     storefront.NewFileSelectionStore(opts.statePath),
		formatter: formatter,
		interval:  opts.interval,
		log:       log,
		out:       out,
	}

	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "medicines":
		return cli.medicines(ctx)
	case "select":
		if len(cmdArgs) != 1 {
			return errors.New("usage: storefront select <medicine-id>")
		}
		return cli.toggle(ctx, cmdArgs[0])
	case "cart":
		return cli.cart(ctx)
	case "clear":
		return cli.store.Save(ctx, localOwner, checkout.NewSelection())
	case "checkout":
		return cli.checkout(ctx, cmdArgs)
	case "track":
		if len(cmdArgs) != 1 {
			return errors.New("usage: storefront track <tracking-id>")
		}
		return cli.track(ctx, cmdArgs[0])
	case "land":
		if len(cmdArgs) != 1 {
			return errors.New("usage: storefront land <url>")
		}
		return cli.land(ctx, cmdArgs[0])
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type app struct {
	client    *storefront.Client
	store     *storefront.FileSelectionStore
	formatter *money.Formatter
	interval  time.Duration
	log       *zap.Logger
	out       io.Writer
}

func (a *app) medicines(ctx context.Context) error {
	meds, err := a.client.Medicines(ctx)
	if err != nil {
		return err
	}
	sel, err := a.store.Load(ctx, localOwner)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tCATEGORY\tPRICE")
	for _, m := range meds {
		mark := " "
		if sel.Contains(m.ID) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, m.ID, m.Name, m.Category, a.formatter.Format(decimal.NewFromFloat(m.Price)))
	}
	return tw.Flush()
}

func (a *app) toggle(ctx context.Context, raw string) error {
	id, err := checkout.ParseID([]byte(raw))
	if err != nil {
		// bare words are ids too
		id = strings.TrimSpace(raw)
	}
	if id == "" {
		return errors.New("medicine id is required")
	}

	sel, err := a.store.Load(ctx, localOwner)
	if err != nil {
		return err
	}
	if sel.Toggle(id) {
		fmt.Fprintf(a.out, "Added %s (%d selected)\n", id, sel.Len())
	} else {
		fmt.Fprintf(a.out, "Removed %s (%d selected)\n", id, sel.Len())
	}
	return a.store.Save(ctx, localOwner, sel)
}

func (a *app) cart(ctx context.Context) error {
	sel, err := a.store.Load(ctx, localOwner)
	if err != nil {
		return err
	}
	if sel.IsEmpty() {
		fmt.Fprintln(a.out, "Selection is empty")
		return nil
	}
	meds, err := a.client.Medicines(ctx)
	if err != nil {
		return err
	}

	invoice := checkout.BuildInvoice(sel, storefront.CatalogIndex(meds))
	priced := make(map[string]bool, len(invoice.Lines))
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, line := range invoice.Lines {
		priced[line.ItemID] = true
		fmt.Fprintf(tw, "%s\t%s\t%s\n", line.ItemID, line.Name, a.formatter.Format(line.Price))
	}
	for _, id := range sel.IDs() {
		if !priced[id] {
			fmt.Fprintf(tw, "%s\t(no longer available)\t\n", id)
		}
	}
	fmt.Fprintf(tw, "\tTotal\t%s\n", a.formatter.Format(invoice.Total))
	return tw.Flush()
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "Receipt email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel, err := a.store.Load(ctx, localOwner)
	if err != nil {
		return err
	}

	navigate := storefront.NavigatorFunc(func(url string) error {
		fmt.Fprintf(a.out, "Complete your payment at:\n  %s\n", url)
		return nil
	})
	state, err := storefront.NewRedirector(a.client, navigate, a.log).Purchase(ctx, sel, *email)
	if err != nil {
		return err
	}
	a.log.Debug("Checkout started", zap.Stringer("state", state))
	return nil
}

func (a *app) land(ctx context.Context, url string) error {
	state, err := storefront.Land(url)
	if err != nil {
		return err
	}
	switch state {
	case storefront.StateSuccess:
		fmt.Fprintln(a.out, "Payment successful. Thank you for your order!")
		return a.store.Save(ctx, localOwner, checkout.NewSelection())
	default:
		fmt.Fprintln(a.out, "Payment cancelled. Your selection has been kept.")
		return nil
	}
}

func (a *app) track(ctx context.Context, trackingID string) error {
	missing := make(chan error, 1)
	poller := storefront.NewTrackingPoller(a.client, trackingID, func(r storefront.PollResult) {
		now := time.Now().Format(time.TimeOnly)
		switch {
		case storefront.IsNotFound(r.Err):
			select {
			case missing <- r.Err:
			default:
			}
		case r.Err != nil:
			fmt.Fprintf(a.out, "%s  lookup failed: %v\n", now, r.Err)
		default:
			fmt.Fprintf(a.out, "%s  %s  %d item(s)\n", now, r.Order.Status, len(r.Order.Items))
		}
	},
		storefront.WithInterval(a.interval),
		storefront.WithStopOnFinal(),
		storefront.WithPollerLogger(a.log),
	)
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	select {
	case <-poller.Done():
		return nil
	case err := <-missing:
		return err
	case <-ctx.Done():
		return nil
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Medico terminal storefront

Usage:
  storefront [flags] <command> [arguments]

Commands:
  medicines               List the catalog; * marks selected medicines
  select <id>             Add or remove a medicine from the selection
  cart                    Show the selection and its total
  clear                   Empty the selection
  checkout -email <addr>  Start a Stripe checkout for the selection
  land <url>              Handle the success or cancel page Stripe returned to
  track <tracking-id>     Follow an order until it is paid or expired

Flags:
  -api string        Backend base URL (default $MEDICO_API_URL or http://localhost:3000)
  -state string      Selection file (default <config dir>/medico/selection.json)
  -currency string   Display currency (default USD)
  -interval duration Tracking poll interval (default 5s)
  -v                 Verbose logging
`)
}
