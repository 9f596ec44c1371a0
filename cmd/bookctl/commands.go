package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"roombook/pkg/apiclient"
	"roombook/pkg/model"
)

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet("bookctl "+name, pflag.ContinueOnError)
}

func runRooms(ctx context.Context, c *cli, args []string) error {
	var filter model.RoomFilter
	flags := newFlagSet("rooms")
	flags.StringVar(&filter.Type, "type", "", "room type (classroom or lab)")
	flags.StringVar(&filter.Building, "building", "", "building name")
	flags.StringVarP(&filter.Query, "query", "q", "", "search name, building and equipment")
	flags.BoolVar(&filter.IncludeInactive, "all", false, "include inactive rooms")
	if err := flags.Parse(args); err != nil {
		return err
	}

	rooms, err := c.rooms.List(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCAPACITY\tBUILDING\tFLOOR\tEQUIPMENT")
	for _, room := range rooms {
		name := room.Name
		if !room.IsActive {
			name += " (inactive)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			room.ID, name, room.Type, room.Capacity, room.Building, room.Floor, strings.Join(room.Equipment, ", "))
	}
	return tw.Flush()
}

func runSchedule(ctx context.Context, c *cli, args []string) error {
	var roomID, date, tz string
	flags := newFlagSet("schedule")
	flags.StringVar(&roomID, "room", "", "room id (all rooms when empty)")
	flags.StringVar(&date, "date", "", "day as YYYY-MM-DD (today when empty)")
	flags.StringVar(&tz, "tz", "", "IANA time zone of the day")
	if err := flags.Parse(args); err != nil {
		return err
	}

	schedule, err := c.bookings.Schedule(ctx, roomID, date, tz)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Schedule for %s (%s)\n", schedule.Date, schedule.TimeZone)
	if len(schedule.Bookings) == 0 {
		fmt.Fprintln(c.out, "No bookings.")
		return nil
	}
	return printBookings(c, schedule.Bookings)
}

func runCheck(ctx context.Context, c *cli, args []string) error {
	var roomID, start, end, excludeID string
	flags := newFlagSet("check")
	flags.StringVar(&roomID, "room", "", "room id")
	flags.StringVar(&start, "start", "", "start time (RFC3339)")
	flags.StringVar(&end, "end", "", "end time (RFC3339)")
	flags.StringVar(&excludeID, "exclude", "", "booking id to ignore")
	if err := flags.Parse(args); err != nil {
		return err
	}

	startTime, endTime, err := parseRange(start, end)
	if err != nil {
		return err
	}
	if roomID == "" {
		return errors.New("--room is required")
	}

	check, err := c.bookings.CheckConflicts(ctx, roomID, startTime, endTime, excludeID)
	if err != nil {
		return err
	}
	if !check.HasConflict {
		fmt.Fprintln(c.out, "No conflicts.")
		return nil
	}
	fmt.Fprintf(c.out, "%d conflicting booking(s):\n", len(check.Conflicts))
	return printBookings(c, check.Conflicts)
}

func runBook(ctx context.Context, c *cli, args []string) error {
	var req model.CreateBookingRequest
	var start, end, description, key string
	flags := newFlagSet("book")
	flags.StringVar(&req.RoomID, "room", "", "room id")
	flags.StringVar(&req.Title, "title", "", "booking title")
	flags.StringVar(&description, "description", "", "booking description")
	flags.StringVar(&start, "start", "", "start time (RFC3339)")
	flags.StringVar(&end, "end", "", "end time (RFC3339)")
	flags.IntVar(&req.AttendeeCount, "attendees", 1, "number of attendees")
	flags.StringVar(&key, "idempotency-key", "", "idempotency key (generated when empty)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	startTime, endTime, err := parseRange(start, end)
	if err != nil {
		return err
	}
	req.StartTime, req.EndTime = startTime, endTime
	if description != "" {
		req.Description = &description
	}
	if key == "" {
		key = uuid.NewString()
	}

	booking, err := c.bookings.Create(ctx, &req, key)
	if err != nil {
		var conflictErr *apiclient.ConflictError
		if errors.As(err, &conflictErr) {
			fmt.Fprintf(c.out, "Room is already booked by %d booking(s):\n", len(conflictErr.Conflicts))
			if printErr := printBookings(c, conflictErr.Conflicts); printErr != nil {
				return printErr
			}
		}
		return err
	}

	fmt.Fprintf(c.out, "Booked %s (%s)\n", booking.ID, booking.Status)
	return nil
}

func runCancel(ctx context.Context, c *cli, args []string) error {
	flags := newFlagSet("cancel")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: bookctl cancel <booking-id>")
	}

	booking, err := c.bookings.Cancel(ctx, flags.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Cancelled %s\n", booking.ID)
	return nil
}

func runMine(ctx context.Context, c *cli, args []string) error {
	var filter string
	var limit int
	var offset int64
	flags := newFlagSet("mine")
	flags.StringVar(&filter, "filter", "upcoming", "upcoming, past or all")
	flags.IntVar(&limit, "limit", 20, "page size")
	flags.Int64Var(&offset, "offset", 0, "page offset")
	if err := flags.Parse(args); err != nil {
		return err
	}

	bookings, meta, err := c.bookings.Mine(ctx, filter, limit, offset)
	if err != nil {
		return err
	}
	if err := printBookings(c, bookings); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Showing %d of %d\n", len(bookings), meta.TotalCount)
	return nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, errors.New("--start and --end are required")
	}
	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
	}
	endTime, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
	}
	return startTime, endTime, nil
}

func printBookings(c *cli, bookings []*model.Booking) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROOM\tSTART\tEND\tTITLE\tSTATUS")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.RoomID, b.StartTime.Format(time.RFC3339), b.EndTime.Format(time.RFC3339), b.Title, b.Status)
	}
	return tw.Flush()
}
