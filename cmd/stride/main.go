// Package main provides the CLI entrypoint for stride.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/stride/internal/config"
	"github.com/verte-zerg/stride/internal/dayui"
	"github.com/verte-zerg/stride/internal/engine"
	"github.com/verte-zerg/stride/internal/model"
	"github.com/verte-zerg/stride/internal/report"
	"github.com/verte-zerg/stride/internal/samples"
	"github.com/verte-zerg/stride/internal/store"
)

const (
	defaultTimeoutMinutes = 120
	dateLayout            = "2006-01-02"
)

var (
	rootDate string

	dayDate string

	attributeDate  string
	attributeHours string

	clearDate  string
	clearHours string

	shoeTimeoutMinutes int

	samplesDirOverride string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stride",
		Short:         "Track which shoe owns each hour of step activity",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDayUICmd,
	}
	rootCmd.Flags().StringVar(&rootDate, "date", "", "day to open (YYYY-MM-DD, default today)")
	rootCmd.PersistentFlags().StringVar(&samplesDirOverride, "samples-dir", "", "directory with exported day files")

	rootCmd.AddCommand(newShoesCmd())
	rootCmd.AddCommand(newShoeCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newToggleCmd())
	rootCmd.AddCommand(newAttributeCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newDayCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// openEngine wires the store and samples provider per config and flags.
// The returned cleanup closes the store.
func openEngine(cmd *cobra.Command) (*engine.Engine, func(), error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	samplesDir := config.DefaultSamplesDir()
	applyStringConfig(cmd, "samples-dir", &samplesDirOverride, fileCfg.Tracker.SamplesDir)
	if samplesDirOverride != "" {
		samplesDir = samplesDirOverride
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	cleanup := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return engine.New(st, samples.NewDir(samplesDir)), cleanup, nil
}

func runDayUICmd(cmd *cobra.Command, _ []string) error {
	day, err := resolveDate(rootDate)
	if err != nil {
		return err
	}
	eng, cleanup, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	program := tea.NewProgram(dayui.NewModel(eng, day), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newShoesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shoes",
		Short: "List shoes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			shoes, err := eng.Shoes(ctx, true)
			if err != nil {
				return err
			}
			if len(shoes) == 0 {
				logErrln("No shoes yet. Add one with: stride shoe add <name>")
				return nil
			}
			active, err := eng.ActiveSession(ctx)
			if err != nil {
				return err
			}
			sort.Slice(shoes, func(i, j int) bool { return shoes[i].Name < shoes[j].Name })
			for _, shoe := range shoes {
				marks := []string{}
				if shoe.IsDefault {
					marks = append(marks, "default")
				}
				if shoe.Archived {
					marks = append(marks, "archived")
				}
				if active != nil && active.ShoeID == shoe.ID {
					marks = append(marks, "worn since "+active.StartedAt.Local().Format("15:04"))
				}
				suffix := ""
				if len(marks) > 0 {
					suffix = " (" + strings.Join(marks, ", ") + ")"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", shoe.Name, suffix); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
			return nil
		},
	}
}

func newShoeCmd() *cobra.Command {
	shoeCmd := &cobra.Command{
		Use:   "shoe",
		Short: "Manage shoes",
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a shoe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			applyIntConfig(cmd, "timeout", &shoeTimeoutMinutes, fileCfg.Tracker.TimeoutMinutes)

			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			timeout := time.Duration(shoeTimeoutMinutes) * time.Minute
			if _, err := eng.AddShoe(context.Background(), args[0], timeout); err != nil {
				return fmt.Errorf("failed to add shoe: %w", err)
			}
			return nil
		},
	}
	addCmd.Flags().IntVar(&shoeTimeoutMinutes, "timeout", defaultTimeoutMinutes, "idle minutes before auto-close (0 disables)")

	archiveCmd := &cobra.Command{
		Use:   "archive <name>",
		Short: "Archive a shoe (kept for history)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			shoe, err := resolveShoe(eng, args[0])
			if err != nil {
				return err
			}
			return eng.ArchiveShoe(context.Background(), shoe.ID)
		},
	}

	defaultCmd := &cobra.Command{
		Use:   "default <name>",
		Short: "Mark a shoe as the auto-start default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			shoe, err := resolveShoe(eng, args[0])
			if err != nil {
				return err
			}
			return eng.SetDefaultShoe(context.Background(), shoe.ID)
		},
	}

	shoeCmd.AddCommand(addCmd)
	shoeCmd.AddCommand(archiveCmd)
	shoeCmd.AddCommand(defaultCmd)
	return shoeCmd
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <name>",
		Short: "Start wearing a shoe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			shoe, err := resolveShoe(eng, args[0])
			if err != nil {
				return err
			}
			if _, err := eng.StartSession(context.Background(), shoe.ID, false); err != nil {
				return fmt.Errorf("failed to start session: %w", err)
			}
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [name]",
		Short: "Stop the current session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			var shoeID int64
			if len(args) == 1 {
				shoe, err := resolveShoe(eng, args[0])
				if err != nil {
					return err
				}
				shoeID = shoe.ID
			} else {
				active, err := eng.ActiveSession(ctx)
				if err != nil {
					return err
				}
				if active == nil {
					return engine.ErrNoActiveSession
				}
				shoeID = active.ShoeID
			}
			if err := eng.StopSession(ctx, shoeID, false); err != nil {
				return fmt.Errorf("failed to stop session: %w", err)
			}
			return nil
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <name>",
		Short: "Start or stop a shoe's session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			shoe, err := resolveShoe(eng, args[0])
			if err != nil {
				return err
			}
			return eng.ToggleSession(context.Background(), shoe.ID)
		},
	}
}

func newAttributeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attribute <name>",
		Short: "Attribute hours to a shoe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := resolveDate(attributeDate)
			if err != nil {
				return err
			}
			hours, err := parseHourList(attributeHours, day)
			if err != nil {
				return err
			}
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			shoe, err := resolveShoe(eng, args[0])
			if err != nil {
				return err
			}
			if err := eng.AttributeHours(context.Background(), hours, shoe.ID); err != nil {
				return fmt.Errorf("failed to attribute hours: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&attributeDate, "date", "", "day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&attributeHours, "hours", "", "hours, e.g. 9,10-12 (required)")
	return cmd
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove explicit hour attributions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := resolveDate(clearDate)
			if err != nil {
				return err
			}
			hours, err := parseHourList(clearHours, day)
			if err != nil {
				return err
			}
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := eng.RemoveAttributions(context.Background(), hours); err != nil {
				return fmt.Errorf("failed to clear attributions: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&clearDate, "date", "", "day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&clearHours, "hours", "", "hours, e.g. 9,10-12 (required)")
	return cmd
}

func newDayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Print the reconciled day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := resolveDate(dayDate)
			if err != nil {
				return err
			}
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			hours, err := eng.ReconciledHours(context.Background(), day)
			if err != nil {
				return err
			}
			return report.RenderDay(cmd.OutOrStdout(), day.Format(dateLayout), hours)
		},
	}
	cmd.Flags().StringVar(&dayDate, "date", "", "day (YYYY-MM-DD, default today)")
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Close idle sessions and auto-start the default shoe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := eng.RunAutoManagementSweep(context.Background())
			if err != nil {
				return err
			}
			if len(result.ClosedSessionIDs) > 0 {
				logErrf("auto-closed %d idle session(s)\n", len(result.ClosedSessionIDs))
			}
			if result.AutoStartedShoeID != 0 {
				logErrln("auto-started default shoe")
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# stride configuration
# Uncomment a value to enable it. CLI flags override config values.

[tracker]
# samples-dir = %q
# timeout-minutes = %d    # Idle minutes before a session auto-closes (0 disables)
`,
		config.DefaultSamplesDir(),
		defaultTimeoutMinutes,
	)
}

func resolveShoe(eng *engine.Engine, name string) (*model.Shoe, error) {
	shoe, err := eng.ShoeByName(context.Background(), name)
	if err != nil {
		return nil, err
	}
	if shoe == nil {
		return nil, fmt.Errorf("unknown shoe %q (list with: stride shoes)", name)
	}
	return shoe, nil
}

func resolveDate(value string) (time.Time, error) {
	if value == "" {
		return model.Day(time.Now()), nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date value: %w", err)
	}
	return model.Day(parsed), nil
}

// parseHourList expands "9,13-15" on the given day into hour instants.
func parseHourList(value string, day time.Time) ([]time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("--hours is required (e.g. --hours 9,10-12)")
	}
	var hours []time.Time
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if idx := strings.Index(part, "-"); idx >= 0 {
			lo, hi = part[:idx], part[idx+1:]
		}
		from, err := parseHour(lo)
		if err != nil {
			return nil, err
		}
		to, err := parseHour(hi)
		if err != nil {
			return nil, err
		}
		if to < from {
			return nil, fmt.Errorf("invalid hour range %q", part)
		}
		for h := from; h <= to; h++ {
			hours = append(hours, day.Add(time.Duration(h)*time.Hour))
		}
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("--hours must not be empty")
	}
	return hours, nil
}

func parseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour %q (expected 0-23)", s)
	}
	return h, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}

func logErrln(args ...any) {
	_, _ = fmt.Fprintln(os.Stderr, args...)
}
