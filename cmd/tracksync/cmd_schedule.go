package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/tracksync/tracksync/internal/client"
	"github.com/tracksync/tracksync/internal/config"
	"github.com/tracksync/tracksync/internal/consts"
	"github.com/tracksync/tracksync/internal/notify"
	"github.com/tracksync/tracksync/internal/schedule"
)

var scheduleHwd = &ScheduleRunner{}

// ScheduleRunner implements the schedule editor commands against a running
// tracksync service.
type ScheduleRunner struct {
	scanner *bufio.Scanner
}

func (r *ScheduleRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Inspect and edit the automatic sync schedule",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the current schedule and upcoming runs",
				Flags:  r.flags(),
				Action: r.show,
			},
			{
				Name:   "edit",
				Usage:  "Edit the schedule interactively",
				Flags:  r.flags(),
				Action: r.edit,
			},
			{
				Name:   "enable",
				Usage:  "Enable automatic sync",
				Flags:  r.flags(),
				Action: r.enable,
			},
			{
				Name:   "disable",
				Usage:  "Disable automatic sync",
				Flags:  r.flags(),
				Action: r.disable,
			},
		},
	}
}

func (r *ScheduleRunner) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to the config file",
		},
	}
}

// ── style helpers ──────────────────────────────────────────────────

var (
	cHeader  = color.New(color.FgCyan, color.Bold)
	cWarn    = color.New(color.FgYellow)
	cSuccess = color.New(color.FgGreen)
	cError   = color.New(color.FgRed)
	cPrompt  = color.New(color.FgWhite, color.Bold)
	cDim     = color.New(color.FgHiBlack)
)

func (r *ScheduleRunner) gateway(cmd *cli.Command) (*client.Client, error) {
	cfgPath := cmd.String("config")
	if cfgPath == "" {
		cfgPath = consts.DefaultConfigPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config error: %w", err)
	}
	return client.New(cfg.API.BaseURL, cfg.API.Token), nil
}

// ── show ───────────────────────────────────────────────────────────

func (r *ScheduleRunner) show(ctx context.Context, cmd *cli.Command) error {
	gw, err := r.gateway(cmd)
	if err != nil {
		return err
	}
	cfg, err := gw.FetchSchedule(ctx)
	if err != nil {
		return err
	}
	printSchedule(cfg)
	return nil
}

func printSchedule(cfg *schedule.Config) {
	sel := schedule.MatchSelection(cfg.Cron)

	fmt.Println()
	cHeader.Println("  Sync Schedule")
	fmt.Println()
	cDim.Printf("  Preset:         %s\n", sel.Preset)
	cDim.Printf("  Cron:           %s\n", cfg.Cron)
	cDim.Printf("  Timezone:       %s\n", cfg.Timezone)
	cDim.Printf("  Concurrency:    %s\n", cfg.Concurrency)
	cDim.Printf("  Notifications:  %v\n", cfg.Notifications)
	if cfg.Enabled {
		cSuccess.Println("  Enabled:        true")
	} else {
		cWarn.Println("  Enabled:        false")
	}
	if len(cfg.NextRuns) > 0 {
		fmt.Println()
		cDim.Println("  Next runs:")
		for _, run := range cfg.NextRuns {
			fmt.Printf("    %s\n", run)
		}
	}
	fmt.Println()
}

// ── edit ───────────────────────────────────────────────────────────

func (r *ScheduleRunner) edit(ctx context.Context, cmd *cli.Command) error {
	gw, err := r.gateway(cmd)
	if err != nil {
		return err
	}
	r.scanner = bufio.NewScanner(os.Stdin)

	ed := schedule.NewEditor(gw, notify.Console{})
	if err := ed.Open(ctx); err != nil {
		return err
	}
	printSchedule(ed.Fetched())

	if err := r.stepRecurrence(ed); err != nil {
		ed.Cancel()
		return err
	}
	if err := r.stepOptions(ed); err != nil {
		ed.Cancel()
		return err
	}

	// review
	fmt.Println()
	cDim.Printf("  Cron:           %s\n", ed.Cron())
	cDim.Printf("  Timezone:       %s\n", ed.Timezone())
	cDim.Printf("  Concurrency:    %s\n", ed.Concurrency())
	cDim.Printf("  Notifications:  %v\n", ed.Notifications())
	cDim.Printf("  Enabled:        %v\n", ed.Enabled())
	fmt.Println()

	if !r.confirm("  Save schedule?", true) {
		ed.Cancel()
		fmt.Println("  Aborted, nothing saved.")
		return nil
	}

	cfg, err := ed.Save(ctx)
	if err != nil {
		for _, field := range []string{schedule.FieldCron, schedule.FieldWeekdays, schedule.FieldTimeOfDay} {
			if msg := ed.FieldError(field); msg != "" {
				cError.Printf("  ✗ %s: %s\n", field, msg)
			}
		}
		ed.Cancel()
		return err
	}

	cSuccess.Println("  ✓ Schedule saved")
	printSchedule(cfg)
	return nil
}

func (r *ScheduleRunner) stepRecurrence(ed *schedule.Editor) error {
	fmt.Println()
	cDim.Println("  Select recurrence:")
	current := 1
	for i, p := range schedule.Presets {
		fmt.Printf("    [%d] %s\n", i+1, p)
		if p == ed.Selection().Preset {
			current = i + 1
		}
	}
	fmt.Println()

	idx := r.promptChoice("  Recurrence", current, 1, len(schedule.Presets))
	preset := schedule.Presets[idx-1]
	if err := ed.SetPreset(preset); err != nil {
		return err
	}
	fmt.Println()

	switch preset {
	case schedule.PresetDaily, schedule.PresetWeekly, schedule.PresetMonthly:
		tod := r.promptDefault("  Time of day (HH:MM)", orDefault(ed.Selection().TimeOfDay, "09:00"))
		if err := ed.SetTimeOfDay(tod); err != nil {
			return err
		}
		if preset == schedule.PresetWeekly {
			days, err := r.promptWeekdays(ed.Selection().Weekdays)
			if err != nil {
				return err
			}
			if err := ed.SetWeekdays(days); err != nil {
				return err
			}
		}
	case schedule.PresetCustom:
		expr := r.promptDefault("  Cron expression", ed.Cron())
		if err := ed.SetCron(expr); err != nil {
			return err
		}
	}
	return nil
}

func (r *ScheduleRunner) stepOptions(ed *schedule.Editor) error {
	fmt.Println()
	tz := r.promptDefault("  Timezone", ed.Timezone())
	if err := ed.SetTimezone(tz); err != nil {
		return err
	}

	policy := schedule.ConcurrencySkip
	if r.confirm("  Queue runs that fire while a sync is active?", ed.Concurrency() == schedule.ConcurrencyQueue) {
		policy = schedule.ConcurrencyQueue
	}
	if err := ed.SetConcurrency(policy); err != nil {
		return err
	}

	if err := ed.SetNotifications(r.confirm("  Notify on sync problems?", ed.Notifications())); err != nil {
		return err
	}
	return ed.SetEnabled(r.confirm("  Enable automatic sync?", ed.Enabled()))
}

func (r *ScheduleRunner) promptWeekdays(current []int) ([]int, error) {
	def := "1"
	if len(current) > 0 {
		parts := make([]string, len(current))
		for i, d := range current {
			parts[i] = strconv.Itoa(d)
		}
		def = strings.Join(parts, ",")
	}

	for {
		val := r.promptDefault("  Weekdays (0=Sun..6=Sat, comma separated)", def)
		days, err := parseWeekdays(val)
		if err == nil {
			return days, nil
		}
		cError.Printf("  %v\n", err)
	}
}

func parseWeekdays(val string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q, expected 0-6", part)
		}
		days = append(days, n)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("select at least one day")
	}
	return days, nil
}

// ── enable / disable ───────────────────────────────────────────────

func (r *ScheduleRunner) enable(ctx context.Context, cmd *cli.Command) error {
	return r.setEnabled(ctx, cmd, true)
}

func (r *ScheduleRunner) disable(ctx context.Context, cmd *cli.Command) error {
	return r.setEnabled(ctx, cmd, false)
}

func (r *ScheduleRunner) setEnabled(ctx context.Context, cmd *cli.Command, on bool) error {
	gw, err := r.gateway(cmd)
	if err != nil {
		return err
	}

	ed := schedule.NewEditor(gw, notify.Console{})
	if err := ed.Open(ctx); err != nil {
		return err
	}
	if err := ed.SetEnabled(on); err != nil {
		return err
	}
	cfg, err := ed.Save(ctx)
	if err != nil {
		ed.Cancel()
		return err
	}

	if on {
		cSuccess.Println("  ✓ Automatic sync enabled")
	} else {
		cSuccess.Println("  ✓ Automatic sync disabled")
	}
	printSchedule(cfg)
	return nil
}

// ── input helpers ──────────────────────────────────────────────────

func (r *ScheduleRunner) promptDefault(label string, defaultVal string) string {
	if defaultVal != "" {
		cPrompt.Printf("%s ", label)
		cDim.Printf("[%s]", defaultVal)
		cPrompt.Print(" > ")
	} else {
		cPrompt.Printf("%s > ", label)
	}

	if r.scanner.Scan() {
		val := strings.TrimSpace(r.scanner.Text())
		if val != "" {
			return val
		}
	}
	return defaultVal
}

func (r *ScheduleRunner) promptChoice(label string, def, min, max int) int {
	for {
		val := r.promptDefault(label, strconv.Itoa(def))
		n, err := strconv.Atoi(val)
		if err == nil && n >= min && n <= max {
			return n
		}
		cError.Printf("  Please enter a number between %d and %d.\n", min, max)
	}
}

func (r *ScheduleRunner) confirm(label string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	cPrompt.Printf("%s %s > ", label, hint)
	if r.scanner.Scan() {
		val := strings.ToLower(strings.TrimSpace(r.scanner.Text()))
		if val == "" {
			return defaultYes
		}
		return val == "y" || val == "yes"
	}
	return defaultYes
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
