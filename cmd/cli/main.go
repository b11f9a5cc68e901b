package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/internal/config"
	"github.com/adelpech/villa-roster/pkg/core/pattern"
	"github.com/adelpech/villa-roster/pkg/core/services"
	"github.com/adelpech/villa-roster/pkg/postgres"
	"github.com/adelpech/villa-roster/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg    *config.Config
	store  *postgres.DB
	logger *zap.Logger
	ctx    context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Villa Roster CLI - Manage educator shift plannings",
		Long:  `A CLI tool for managing villa shift plannings, educator assignments, absences and worked-day reports.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.logger != nil {
					app.logger.Sync()
				}
				if app.store != nil {
					app.store.Close()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(generateSkeletonCmd())
	rootCmd.AddCommand(applyPatternCmd())
	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(resizeCmd())
	rootCmd.AddCommand(availabilityCmd())
	rootCmd.AddCommand(validateMonthCmd())
	rootCmd.AddCommand(lockMonthCmd())
	rootCmd.AddCommand(monthlyReportCmd())
	rootCmd.AddCommand(workedDaysCmd())
	rootCmd.AddCommand(createAbsenceCmd())
	rootCmd.AddCommand(approveAbsenceCmd())
	rootCmd.AddCommand(rejectAbsenceCmd())
	rootCmd.AddCommand(cancelAbsenceCmd())
	rootCmd.AddCommand(createPatternCmd())
	rootCmd.AddCommand(updatePatternCmd())
	rootCmd.AddCommand(duplicatePatternCmd())
	rootCmd.AddCommand(deletePatternCmd())
	rootCmd.AddCommand(listPatternsCmd())
	rootCmd.AddCommand(interactiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config and database
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	app.logger.Info("Loading configuration")
	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.logger.Info("Connecting to database")
	app.store, err = postgres.NewDB(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	app.logger.Info("Running migrations")
	if err := app.store.RunMigrations(app.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.logger.Info("Database initialized successfully")

	return nil
}

// parseDate parses a YYYY-MM-DD argument as UTC midnight.
func parseDate(arg string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", arg, err)
	}
	return t.UTC(), nil
}

// parseDateTime parses an RFC3339 argument, falling back to YYYY-MM-DD.
func parseDateTime(arg string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, arg); err == nil {
		return t.UTC(), nil
	}
	return parseDate(arg)
}

func parseYearMonth(yearArg, monthArg string) (int, time.Month, error) {
	year, err := strconv.Atoi(yearArg)
	if err != nil {
		return 0, 0, fmt.Errorf("year must be a number: %w", err)
	}
	monthNum, err := strconv.Atoi(monthArg)
	if err != nil || monthNum < 1 || monthNum > 12 {
		return 0, 0, fmt.Errorf("month must be a number between 1 and 12")
	}
	return year, time.Month(monthNum), nil
}

func printWarnings(warnings []services.Warning) {
	for _, w := range warnings {
		fmt.Printf("  ! [%s] %s\n", w.Code, w.Message)
	}
}

// Command definitions

func generateSkeletonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generateSkeleton <villa_id> <year> <month>",
		Short: "Generate the baseline weekly-cycle slots for a villa month",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonth(args[1], args[2])
			if err != nil {
				return err
			}

			planning, slots, err := services.GenerateSkeleton(app.ctx, app.store, app.logger, args[0], year, month)
			if err != nil {
				return err
			}

			fmt.Printf("\nSkeleton generated for villa %s, %d-%02d\n\n", planning.VillaID, planning.Year, int(planning.Month))
			fmt.Printf("Month ID: %s\n", planning.ID)
			fmt.Printf("Slots:    %d\n\n", len(slots))
			for _, slot := range slots {
				fmt.Printf("  %s  %-14s %s -> %s\n",
					slot.ID, slot.Kind,
					slot.Start.Format("Mon 02 15:04"),
					slot.End.Format("Mon 02 15:04"))
			}
			fmt.Println()
			return nil
		},
	}
}

func applyPatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "applyPattern <pattern_id> <month_id>",
		Short: "Instantiate a stored weekly pattern into a planning month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.ApplyPattern(app.ctx, app.store, app.logger, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("\nPattern applied: %d slots created\n\n", result.CreatedCount)
			return nil
		},
	}
}

func assignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <slot_id> <user_id>",
		Short: "Assign an educator to a shift slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnings, err := services.AssignSlot(app.ctx, app.store, app.cfg, app.logger, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("\nSlot %s assigned to %s\n", args[0], args[1])
			if len(warnings) > 0 {
				fmt.Printf("%d warning(s):\n", len(warnings))
				printWarnings(warnings)
			}
			fmt.Println()
			return nil
		},
	}
}

func resizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize <slot_id> <start> <end>",
		Short: "Change a slot's window (RFC3339 or YYYY-MM-DD)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateTime(args[1])
			if err != nil {
				return err
			}
			end, err := parseDateTime(args[2])
			if err != nil {
				return err
			}

			if err := services.ResizeSlot(app.ctx, app.store, app.logger, args[0], start, end); err != nil {
				return err
			}

			fmt.Printf("\nSlot %s resized\n\n", args[0])
			return nil
		},
	}
}

func availabilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "availability <user_id> <from> <to>",
		Short: "Show an educator's absences, appointments and slots in a window",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDateTime(args[1])
			if err != nil {
				return err
			}
			to, err := parseDateTime(args[2])
			if err != nil {
				return err
			}

			availability, err := services.ResolveAvailability(app.ctx, app.store, app.logger, args[0], from, to)
			if err != nil {
				return err
			}

			fmt.Printf("\nAvailability for %s from %s to %s\n\n", args[0], args[1], args[2])
			printItems := func(header string, items []services.AvailabilityItem) {
				if len(items) == 0 {
					return
				}
				fmt.Printf("%s:\n", header)
				for _, item := range items {
					fmt.Printf("  %s -> %s  %s\n",
						item.Start.Format(time.RFC3339), item.End.Format(time.RFC3339), item.Label)
				}
				fmt.Println()
			}
			printItems("Absences", availability.Absences)
			printItems("Appointments", availability.Appointments)

			if len(availability.Slots) > 0 {
				fmt.Println("Assigned slots:")
				for _, slot := range availability.Slots {
					fmt.Printf("  %s -> %s  %s\n",
						slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339), slot.Kind)
				}
				fmt.Println()
			}

			if !availability.HasConflicts() && len(availability.Slots) == 0 {
				fmt.Println("No entries in this window.")
			}
			return nil
		},
	}
}

func validateMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validateMonth <month_id>",
		Short: "Run the pre-lock checks on a planning month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.ValidateMonth(app.ctx, app.store, app.cfg, app.logger, args[0])
			if err != nil {
				return err
			}

			printValidation(result)
			return nil
		},
	}
}

func printValidation(result *services.MonthValidation) {
	if result.Valid {
		fmt.Printf("\nMonth is valid (%d warning(s))\n", len(result.Warnings))
	} else {
		fmt.Printf("\nMonth is NOT valid: %d error(s), %d warning(s)\n", len(result.Errors), len(result.Warnings))
	}
	if len(result.Errors) > 0 {
		fmt.Println("Errors:")
		printWarnings(result.Errors)
	}
	if len(result.Warnings) > 0 {
		fmt.Println("Warnings:")
		printWarnings(result.Warnings)
	}
	fmt.Println()
}

func lockMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lockMonth <month_id> <validated_by>",
		Short: "Validate and lock a planning month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.LockMonth(app.ctx, app.store, app.cfg, app.logger, args[0], args[1])
			if err != nil {
				if result != nil {
					printValidation(result)
				}
				return err
			}

			fmt.Printf("\nMonth %s locked by %s\n\n", args[0], args[1])
			return nil
		},
	}
}

func monthlyReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monthlyReport <year> <month>",
		Short: "Print the per-educator worked-day report for a month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonth(args[0], args[1])
			if err != nil {
				return err
			}

			report, err := services.MonthlyReport(app.ctx, app.store, app.logger, year, month)
			if err != nil {
				return err
			}

			fmt.Printf("\nWorked-time report %d-%02d\n\n", report.Year, int(report.Month))
			fmt.Printf("%-28s %12s %12s %12s\n", "Educator", "Main d/h", "Renfort d/h", "Total d/h")
			for _, row := range report.Rows {
				fmt.Printf("%-28s %6d/%-5d %6d/%-5d %6d/%-5d\n",
					row.UserName,
					row.Summary.MainShift.Days, row.Summary.MainShift.Hours,
					row.Summary.Reinforcement.Days, row.Summary.Reinforcement.Hours,
					row.Summary.Total().Days, row.Summary.Total().Hours)
			}
			total := report.Totals
			fmt.Printf("%-28s %6d/%-5d %6d/%-5d %6d/%-5d\n\n",
				"TOTAL",
				total.MainShift.Days, total.MainShift.Hours,
				total.Reinforcement.Days, total.Reinforcement.Hours,
				total.Total().Days, total.Total().Hours)
			return nil
		},
	}
}

func workedDaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workedDays <user_id> <from> <to>",
		Short: "Print one educator's worked-day totals over a window",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDateTime(args[1])
			if err != nil {
				return err
			}
			to, err := parseDateTime(args[2])
			if err != nil {
				return err
			}

			summary, err := services.CalculateWorkedDays(app.ctx, app.store, args[0], from, to)
			if err != nil {
				return err
			}

			fmt.Printf("\nWorked time for %s:\n", args[0])
			fmt.Printf("  Main shifts:    %d days, %d hours\n", summary.MainShift.Days, summary.MainShift.Hours)
			fmt.Printf("  Reinforcements: %d days, %d hours\n", summary.Reinforcement.Days, summary.Reinforcement.Hours)
			fmt.Printf("  Total:          %d days, %d hours\n\n", summary.Total().Days, summary.Total().Hours)
			return nil
		},
	}
}

func createAbsenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createAbsence <user_id> <leave_type_id> <start> <end>",
		Short: "Record a pending absence request",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateTime(args[2])
			if err != nil {
				return err
			}
			end, err := parseDateTime(args[3])
			if err != nil {
				return err
			}
			comment, _ := cmd.Flags().GetString("comment")

			absence, err := services.CreateAbsence(app.ctx, app.store, app.logger, args[0], args[1], start, end, comment)
			if err != nil {
				return err
			}

			fmt.Printf("\nAbsence created: %s (pending)\n\n", absence.ID)
			return nil
		},
	}

	cmd.Flags().String("comment", "", "Free-text comment attached to the request")
	return cmd
}

func approveAbsenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approveAbsence <absence_id>",
		Short: "Approve a pending absence and debit the leave counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.ApproveAbsence(app.ctx, app.store, app.cfg, app.logger, args[0]); err != nil {
				return err
			}
			fmt.Printf("\nAbsence %s approved\n\n", args[0])
			return nil
		},
	}
}

func rejectAbsenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rejectAbsence <absence_id>",
		Short: "Reject a pending absence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.RejectAbsence(app.ctx, app.store, app.logger, args[0]); err != nil {
				return err
			}
			fmt.Printf("\nAbsence %s rejected\n\n", args[0])
			return nil
		},
	}
}

func cancelAbsenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancelAbsence <absence_id>",
		Short: "Cancel an absence, crediting counters back when it was approved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.CancelAbsence(app.ctx, app.store, app.cfg, app.logger, args[0]); err != nil {
				return err
			}
			fmt.Printf("\nAbsence %s cancelled\n\n", args[0])
			return nil
		},
	}
}

// readPatternConfig loads a pattern config from a JSON file path argument.
func readPatternConfig(path string) (pattern.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return pattern.Config{}, fmt.Errorf("failed to read pattern config file: %w", err)
	}
	return pattern.ParseConfig(raw)
}

func createPatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "createPattern <name> <config.json>",
		Short: "Save a reusable weekly pattern from a JSON config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readPatternConfig(args[1])
			if err != nil {
				return err
			}

			result, err := services.CreatePattern(app.ctx, app.store, app.logger, args[0], cfg)
			if err != nil {
				return err
			}

			fmt.Printf("\nPattern created: %s (%s)\n", result.Pattern.Name, result.Pattern.ID)
			for _, w := range result.Warnings {
				fmt.Printf("  ! %s\n", w)
			}
			fmt.Println()
			return nil
		},
	}
}

func updatePatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "updatePattern <pattern_id> <name> <config.json>",
		Short: "Rewrite a stored pattern's name and config",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readPatternConfig(args[2])
			if err != nil {
				return err
			}

			result, err := services.UpdatePattern(app.ctx, app.store, app.logger, args[0], args[1], cfg)
			if err != nil {
				return err
			}

			fmt.Printf("\nPattern updated: %s\n", result.Pattern.Name)
			for _, w := range result.Warnings {
				fmt.Printf("  ! %s\n", w)
			}
			fmt.Println()
			return nil
		},
	}
}

func duplicatePatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicatePattern <pattern_id>",
		Short: "Copy a pattern under a fresh name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dup, err := services.DuplicatePattern(app.ctx, app.store, app.logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nPattern duplicated: %s (%s)\n\n", dup.Name, dup.ID)
			return nil
		},
	}
}

func deletePatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deletePattern <pattern_id>",
		Short: "Delete a stored pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.DeletePattern(app.ctx, app.store, app.logger, args[0]); err != nil {
				return err
			}
			fmt.Printf("\nPattern %s deleted\n\n", args[0])
			return nil
		},
	}
}

func listPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listPatterns",
		Short: "List stored patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := app.store.ListPatterns(app.ctx)
			if err != nil {
				return fmt.Errorf("failed to list patterns: %w", err)
			}

			fmt.Printf("\nFound %d pattern(s):\n\n", len(patterns))
			for _, p := range patterns {
				fmt.Printf("- %s (%s) garde=%d renfort=%d used=%d\n",
					p.Name, p.ID, len(p.Config.Garde), len(p.Config.Renfort), p.UsageCount)
			}
			fmt.Println()
			return nil
		},
	}
}

func interactiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (connect once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands without
reconnecting to the database. The session keeps running until you type 'exit'
or 'quit'. Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\nStarting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			rootCmd := cmd.Parent()
			commands := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				if subCmd.Name() != "interactive" && subCmd.Name() != "completion" && subCmd.Name() != "help" {
					commands[subCmd.Name()] = subCmd
				}
			}

			scanner := bufio.NewScanner(os.Stdin)

			for {
				fmt.Print("> ")

				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				parts := strings.Fields(line)
				cmdName := parts[0]
				cmdArgs := parts[1:]

				if cmdName == "exit" || cmdName == "quit" {
					fmt.Println("Goodbye!")
					return nil
				}

				if cmdName == "help" {
					printInteractiveHelp(commands)
					continue
				}

				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Printf("Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				// Reset command flags so repeated invocations start clean.
				targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
					flag.Changed = false
					flag.Value.Set(flag.DefValue)
				})

				// Run the command's RunE directly, bypassing Execute() so
				// PersistentPreRunE does not reconnect on every line.
				if err := targetCmd.ParseFlags(cmdArgs); err != nil {
					fmt.Printf("Error parsing flags: %v\n\n", err)
					continue
				}

				cmdArgs = targetCmd.Flags().Args()

				if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
					fmt.Printf("Error: %v\n\n", err)
					continue
				}

				if targetCmd.RunE != nil {
					if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
						fmt.Printf("Error: %v\n\n", err)
					}
				} else if targetCmd.Run != nil {
					targetCmd.Run(targetCmd, cmdArgs)
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			return nil
		},
	}

	return cmd
}

func printInteractiveHelp(commands map[string]*cobra.Command) {
	fmt.Println("\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Printf("  %-42s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Println("\n  help                                       Show this help message")
	fmt.Println("  exit, quit                                 Exit the interactive session")
}
