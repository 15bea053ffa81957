package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"drinktracker/internal/core"
	"drinktracker/internal/ports"
	"drinktracker/internal/services"
	"drinktracker/internal/storage"
)

// Context is handed to every drinkctl command by kong.
type Context struct {
	Ctx    context.Context
	Store  ports.Store
	Drinks *services.DrinkService
	Rollup *services.MonthlyRollupProcessor
	DBPath string
	Out    io.Writer
	Now    services.Clock
}

func (c *Context) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

type MigrateCmd struct{}

func (cmd *MigrateCmd) Run(c *Context) error {
	if c.DBPath == "" {
		return fmt.Errorf("migrate needs the sqlite backend (SQLITE_DB_PATH)")
	}
	if err := storage.RunMigrations(c.DBPath); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Schema at %s is up to date\n", c.DBPath)
	return nil
}

// RollupCmd recomputes one month for every user. Without flags it targets
// the month before today (UTC).
type RollupCmd struct {
	Year  int `help:"Year to roll up." default:"0"`
	Month int `help:"Month to roll up (1-12)." default:"0"`
}

func (cmd *RollupCmd) Run(c *Context) error {
	ym := core.PreviousMonth(core.DayOf(c.now().UTC()))
	if cmd.Year != 0 || cmd.Month != 0 {
		var err error
		ym, err = core.NewYearMonth(cmd.Year, cmd.Month)
		if err != nil {
			return err
		}
	}

	report, err := c.Rollup.ProcessMonth(c.Ctx, ym)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, report.Message())
	if report.Skipped > 0 || report.Failed > 0 {
		fmt.Fprintf(c.Out, "skipped %d, failed %d\n", report.Skipped, report.Failed)
	}
	return nil
}

type StreakCmd struct {
	User string `required:"" help:"User id."`
}

func (cmd *StreakCmd) Run(c *Context) error {
	res, err := c.Drinks.Streaks(c.Ctx, cmd.User)
	if err != nil {
		return err
	}

	last := "never"
	if res.LastTrackedDay != nil {
		last = res.LastTrackedDay.String()
	}

	w := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\tCURRENT\tLONGEST\n")
	fmt.Fprintf(w, "tracking\t%d\t%d\n", res.CurrentTrackingStreak, res.LongestTrackingStreak)
	fmt.Fprintf(w, "sober\t%d\t%d\n", res.CurrentSoberStreak, res.LongestSoberStreak)
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "last tracked: %s\n", last)
	return nil
}

type SummariesCmd struct {
	User  string `required:"" help:"User id."`
	Limit int    `help:"Most recent months to show." default:"12"`
}

func (cmd *SummariesCmd) Run(c *Context) error {
	rows, err := c.Drinks.Summaries(c.Ctx, cmd.User, cmd.Limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(c.Out, "No summaries yet.")
		return nil
	}

	w := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tTOTAL\tDAYS\tAVG/DAY")
	for _, s := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\n", s.YearMonth(), s.TotalDrinks, s.DaysTracked, s.AveragePerDay)
	}
	return w.Flush()
}

// RecordCmd appends a +1/-1 entry for today, or confirms a sober day.
type RecordCmd struct {
	User  string `required:"" help:"User id."`
	Delta int    `help:"+1 for a drink, -1 to undo one." default:"1"`
	Zero  bool   `help:"Confirm zero drinks instead of recording one."`
	Date  string `help:"Day to confirm as zero (YYYY-MM-DD). Defaults to today."`
}

func (cmd *RecordCmd) Run(c *Context) error {
	if cmd.Zero {
		var day *core.CalendarDay
		if cmd.Date != "" {
			d, err := core.ParseCalendarDay(cmd.Date)
			if err != nil {
				return err
			}
			day = &d
		}
		e, err := c.Drinks.ConfirmZero(c.Ctx, cmd.User, day)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "Confirmed zero drinks on %s\n", e.Day)
		return nil
	}

	if cmd.Date != "" {
		return fmt.Errorf("--date only applies with --zero")
	}
	if _, err := c.Drinks.RecordDrink(c.Ctx, cmd.User, cmd.Delta); err != nil {
		return err
	}
	today, err := c.Drinks.Today(c.Ctx, cmd.User)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "%s: %d drinks\n", today.Day, today.Count)
	return nil
}
