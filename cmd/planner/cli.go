package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/apiclient"
	"github.com/nekogravitycat/event-planner/internal/listing"
	"github.com/nekogravitycat/event-planner/internal/notify"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
	"github.com/nekogravitycat/event-planner/internal/session"
)

var (
	// errReported means the user was already told what went wrong.
	errReported = errors.New("error already reported")
	errUsage    = errors.New("usage error")
)

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

type cli struct {
	client *apiclient.Client
	store  session.Store
	in     *bufio.Scanner
	out    io.Writer
	log    *zap.Logger
	sink   notify.Sink
	nav    notify.Navigator
	now    func() time.Time

	commands map[string]command
}

func newCLI(client *apiclient.Client, store session.Store, in io.Reader, out io.Writer, log *zap.Logger) *cli {
	if log == nil {
		log = zap.NewNop()
	}
	c := &cli{
		client: client,
		store:  store,
		in:     bufio.NewScanner(in),
		out:    out,
		log:    log,
		sink:   notify.NewWriterSink(out, log),
		now:    time.Now,
	}
	c.nav = notify.NavigatorFunc(func() {
		fmt.Fprintln(c.out, "Please log in first: planner login -name NAME -password PASSWORD")
	})

	c.commands = map[string]command{
		"login":           {"login -name NAME | -email EMAIL -password PASSWORD", c.login},
		"logout":          {"logout", c.logout},
		"signup":          {"signup -name NAME -email EMAIL -password PASSWORD [-image PATH]", c.signup},
		"profile":         {"profile", c.profile},
		"venues":          {"venues [-user ID | -mine]", c.venues},
		"vendors":         {"vendors", c.vendors},
		"carters":         {"carters", c.carters},
		"services":        {"services", c.services},
		"venue-services":  {"venue-services -venue ID", c.venueServices},
		"add-venue":       {"add-venue -name NAME [-address ADDR] [-price N] [-image PATH]...", c.addVenue},
		"add-vendor":      {"add-vendor -name NAME [-contact C] [-specialties a,b] [-description D] [-price N] [-image PATH]...", c.addVendor},
		"add-carter":      {"add-carter -name NAME [-contact C] [-specialties a,b] [-description D] [-price N] [-image PATH]...", c.addCarter},
		"attach-services": {"attach-services -venue ID -service ID [-service ID]...", c.attachServices},
		"detach-service":  {"detach-service -venue ID -service ID", c.detachService},
		"book":            {"book -venue ID", c.book},
		"cancel":          {"cancel -booking ID", c.cancel},
	}
	return c
}

// run executes one subcommand and returns the process exit code.
func (c *cli) run(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		c.usage()
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cmd, ok := c.commands[args[0]]
	if !ok {
		fmt.Fprintf(c.out, "unknown command %q\n\n", args[0])
		c.usage()
		return 2
	}

	err := cmd.run(ctx, args[1:])
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, errReported):
		return 1
	default:
		c.report(err)
		return 1
	}
}

func (c *cli) usage() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.out, "usage: planner <command> [flags]")
	fmt.Fprintln(c.out)
	for _, name := range names {
		fmt.Fprintf(c.out, "  %s\n", c.commands[name].usage)
	}
}

// report shows err to the user and sends them to login when the session is
// missing or rejected.
func (c *cli) report(err error) {
	c.sink.Error(messageFor(err))
	if apperror.IsKind(err, apperror.KindUnauthenticated) {
		c.nav.ToLogin()
	}
}

func messageFor(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

// flags returns a FlagSet that reports parse errors to the user.
func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	fs.Usage = func() {
		fmt.Fprintf(c.out, "usage: planner %s\n", c.commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// fetchList loads one list through a list controller, so failures are
// reported the same way in every view.
func fetchList[T any](ctx context.Context, c *cli, label string, fetch listing.FetchFunc[T]) ([]T, error) {
	ctrl := listing.New(fetch, c.sink,
		listing.WithLabel[T](label),
		listing.WithNavigator[T](c.nav),
		listing.WithLogger[T](c.log),
	)
	defer ctrl.Dispose()

	if err := ctrl.Fetch(ctx); err != nil {
		return nil, errReported
	}
	return ctrl.Items(), nil
}

func (c *cli) readLine() (string, bool) {
	fmt.Fprint(c.out, "> ")
	if !c.in.Scan() {
		fmt.Fprintln(c.out)
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}
