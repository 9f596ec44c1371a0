// bookctl is a command-line client for the rooms and bookings services.
//
// Requests are authenticated with a bearer token given by --token. Without
// one, bookctl signs a short-lived token for --user using JWT_SECRET, which
// is meant for local development only.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"roombook/pkg/apiclient"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	"roombook/pkg/model"
)

const (
	DefaultBookingsURL = "http://localhost:8080"
	DefaultRoomsURL    = "http://localhost:8081"
	DevTokenTTL        = 15 * time.Minute
)

type globalOptions struct {
	bookingsURL string
	roomsURL    string
	token       string
	userID      string
	role        string
	department  string
	timeout     time.Duration
}

type command struct {
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"rooms":    {"list rooms", runRooms},
	"schedule": {"show the bookings of one day", runSchedule},
	"check":    {"list bookings overlapping a time range", runCheck},
	"book":     {"create a booking", runBook},
	"cancel":   {"cancel a booking", runCancel},
	"mine":     {"list your bookings", runMine},
}

var commandOrder = []string{"rooms", "schedule", "check", "book", "cancel", "mine"}

type cli struct {
	out      io.Writer
	rooms    *apiclient.RoomClient
	bookings *apiclient.BookingClient
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var opts globalOptions

	flagSet := pflag.NewFlagSet("bookctl", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&opts.bookingsURL, "bookings-url", envOr("BOOKCTL_BOOKINGS_URL", DefaultBookingsURL), "bookings service base URL")
	flagSet.StringVar(&opts.roomsURL, "rooms-url", envOr("BOOKCTL_ROOMS_URL", DefaultRoomsURL), "rooms service base URL")
	flagSet.StringVar(&opts.token, "token", os.Getenv("BOOKCTL_TOKEN"), "bearer token")
	flagSet.StringVar(&opts.userID, "user", os.Getenv("BOOKCTL_USER"), "user id for a locally signed dev token")
	flagSet.StringVar(&opts.role, "role", envOr("BOOKCTL_ROLE", config.RoleStudent), "role for a locally signed dev token")
	flagSet.StringVar(&opts.department, "department", os.Getenv("BOOKCTL_DEPARTMENT"), "department for a locally signed dev token")
	flagSet.DurationVar(&opts.timeout, "timeout", apiclient.DefaultTimeout, "request timeout")
	flagSet.SetOutput(out)
	flagSet.Usage = func() { printUsage(out, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(out, flagSet)
		return errors.New("missing command")
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		printUsage(out, flagSet)
		return fmt.Errorf("unknown command %q", rest[0])
	}

	token, err := resolveToken(opts)
	if err != nil {
		return err
	}

	c := &cli{
		out:      out,
		rooms:    apiclient.NewRoomClient(opts.roomsURL, token),
		bookings: apiclient.NewBookingClient(opts.bookingsURL, token),
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	return cmd.run(ctx, c, rest[1:])
}

// resolveToken prefers an explicit token and otherwise signs one for the
// given user with JWT_SECRET.
func resolveToken(opts globalOptions) (string, error) {
	if opts.token != "" {
		return opts.token, nil
	}
	if opts.userID == "" {
		return "", errors.New("either --token or --user is required")
	}

	manager, err := auth.NewTokenManager(envOr(config.EnvJWTSecret, config.DefaultJWTSecret), envOr(config.EnvJWTIssuer, config.DefaultJWTIssuer))
	if err != nil {
		return "", fmt.Errorf("cannot sign dev token: %w", err)
	}
	return manager.Issue(model.Identity{
		ID:         opts.userID,
		Role:       opts.role,
		Department: opts.department,
	}, DevTokenTTL)
}

func printUsage(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(out, "Usage: bookctl [global flags] <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(out, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Global flags:")
	fmt.Fprint(out, flagSet.FlagUsages())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
