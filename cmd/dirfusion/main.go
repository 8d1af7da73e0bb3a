// Package main provides the CLI entry point for dirfusion.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/AntoineGS/dirfusion/internal/cache"
	"github.com/AntoineGS/dirfusion/internal/config"
	"github.com/AntoineGS/dirfusion/internal/ledger"
	"github.com/AntoineGS/dirfusion/internal/manager"
	"github.com/AntoineGS/dirfusion/internal/platform"
	"github.com/AntoineGS/dirfusion/internal/state"
	tmpl "github.com/AntoineGS/dirfusion/internal/template"
	"github.com/AntoineGS/dirfusion/internal/tui"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath    string // Override from --config flag
	patterns      []string
	exportEmpty   string
	verbose       bool
	interactive   bool
	includeHidden bool
	noCacheEmpty  bool
	dryRun        bool
	showDiff      bool
	simulate      bool
	historyLimit  int
	historyKeep   int
	logFile       *os.File
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "dirfusion",
		Version: version,
		Short:   "Merge folder trees into one destination without losing files",
		Long: `dirfusion merges the contents of several source folders into a single
destination folder. Identical files are skipped, files whose name is taken by
different content are renamed with a numeric suffix, and every merge is
recorded so it can be undone later.

Configuration is read from ~/.config/dirfusion/config.yaml, a .env.local file
and DIRFUSION_* environment variables.

Run 'dirfusion plan <destination> <source>...' to preview a merge.
Run 'dirfusion merge -i <destination> <source>...' to review and merge interactively.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if verbose {
				logWriter := os.Stderr
				// When running interactively (TUI), write logs to a file to avoid corrupting the display
				if interactive && tui.IsTerminal() {
					logPath := filepath.Join(os.TempDir(), "dirfusion.log")
					f, err := os.Create(logPath) //nolint:gosec // fixed name under the temp dir
					if err == nil {
						logFile = f
						logWriter = f
						fmt.Fprintf(os.Stderr, "Verbose logs: %s\n", logPath)
					}
				}
				slog.SetDefault(slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logFile != nil {
				_ = logFile.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Use this config file instead of ~/.config/dirfusion/config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	initCmd := &cobra.Command{
		Use:   "init [backup-dir]",
		Short: "Initialize app configuration",
		Long: `Initialize the app configuration and choose where merge backups are stored.

This creates ~/.config/dirfusion/config.yaml. Without an argument the default
backup directory ~/.local/share/dirfusion/backups is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}

	planCmd := &cobra.Command{
		Use:   "plan <destination> [source...]",
		Short: "Show what a merge would do without touching any file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPlan,
	}
	planCmd.Flags().StringSliceVarP(&patterns, "pattern", "p", nil, "Glob selecting source folders (repeatable)")
	planCmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Merge hidden files and folders")
	planCmd.Flags().BoolVar(&showDiff, "diff", false, "Show a diff for every renamed text file")

	mergeCmd := &cobra.Command{
		Use:   "merge <destination> [source...]",
		Short: "Merge source folders into the destination",
		Long: `Merge every file of the source folders into the destination, recording
each move in a backup that 'dirfusion backups restore' can undo.

Sources left without files afterwards are moved into a temporary cache for the
duration of the command; use --export-empty to keep a copy of their structure.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runMerge,
	}
	mergeCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Review the plan in the interactive TUI before merging")
	mergeCmd.Flags().StringSliceVarP(&patterns, "pattern", "p", nil, "Glob selecting source folders (repeatable)")
	mergeCmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Merge hidden files and folders")
	mergeCmd.Flags().BoolVar(&noCacheEmpty, "no-cache-empty", false, "Leave emptied source folders in place")
	mergeCmd.Flags().StringVar(&exportEmpty, "export-empty", "", "Copy the structure of emptied source folders into this directory")
	mergeCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show the plan without making changes")

	backupsCmd := &cobra.Command{
		Use:   "backups",
		Short: "List, inspect, restore and delete merge backups",
	}

	backupsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded backups, newest first",
		Args:  cobra.NoArgs,
		RunE:  runBackupsList,
	}

	backupsShowCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the operations recorded in a backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupsShow,
	}

	backupsRestoreCmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Undo a merge by moving its files back to their sources",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupsRestore,
	}
	backupsRestoreCmd.Flags().BoolVar(&simulate, "simulate", false, "Report what would be restored without moving anything")

	backupsDeleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a backup file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupsDelete,
	}

	backupsCmd.AddCommand(backupsListCmd, backupsShowCmd, backupsRestoreCmd, backupsDeleteCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent merge runs",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show (0 for all)")
	historyCmd.Flags().IntVar(&historyKeep, "keep", 0, "Delete all but the N most recent runs before showing history")

	rootCmd.AddCommand(initCmd, planCmd, mergeCmd, backupsCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func appConfigPath() string {
	if configPath != "" {
		return configPath
	}

	return config.AppConfigPath()
}

func runInit(_ *cobra.Command, args []string) error {
	cfg := config.Default()

	if len(args) == 1 {
		absPath, err := filepath.Abs(config.ExpandPath(args[0], nil))
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
			return fmt.Errorf("not a directory: %s", absPath)
		}

		cfg.BackupDir = absPath
	}

	path := appConfigPath()
	if path == "" {
		return fmt.Errorf("getting home directory: %w", os.ErrNotExist)
	}

	if err := config.SaveAppConfigTo(cfg, path); err != nil {
		return fmt.Errorf("saving app config: %w", err)
	}

	fmt.Printf("App configuration saved to %s\n", path)
	fmt.Printf("Backup directory: %s\n", cfg.BackupDir)

	return nil
}

// loadConfig loads, expands and validates the app configuration.
func loadConfig() (*config.AppConfig, *platform.Platform, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	cfg, err := config.LoadFrom(appConfigPath(), cwd)
	if err != nil {
		return nil, nil, err
	}

	plat := platform.Detect()
	engine := tmpl.NewEngine(tmpl.NewContextFromPlatform(plat))
	cfg.ExpandPaths(plat.EnvVars, engine)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, plat, nil
}

// newLogger returns the logger shared by the engine, the ledger and the
// cache. The --verbose default logger wins over the configured level.
func newLogger(cfg *config.AppConfig, out io.Writer) *slog.Logger {
	if verbose {
		return slog.Default()
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// app bundles the collaborators a command needs. Close releases them.
type app struct {
	cfg     *config.AppConfig
	plat    *platform.Platform
	logger  *slog.Logger
	ledger  *ledger.Ledger
	history *state.Store
	tracker *cache.Tracker
}

func openApp(logOut io.Writer) (*app, error) {
	cfg, plat, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, plat: plat, logger: newLogger(cfg, logOut)}

	a.ledger, err = ledger.New(cfg.BackupDir)
	if err != nil {
		return nil, err
	}

	a.ledger.WithLogger(a.logger)

	a.history, err = state.Open(cfg.StateDB)
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}

	return a, nil
}

// newManager creates the merge engine together with its empty-folder cache.
func (a *app) newManager() (*manager.Manager, error) {
	tracker, err := cache.New(a.cfg.CacheRoot)
	if err != nil {
		return nil, err
	}

	a.tracker = tracker.WithLogger(a.logger)

	mgr := manager.New(a.plat).
		WithLogger(a.logger).
		WithLedger(a.ledger).
		WithCache(a.tracker).
		WithHistory(a.history).
		WithAutoCache(a.cfg.CacheEmptyFolders && !noCacheEmpty)
	mgr.Verbose = verbose

	return mgr, nil
}

func (a *app) Close() {
	if a.tracker != nil {
		if err := a.tracker.Shutdown(); err != nil {
			a.logger.Warn("cleaning up folder cache", slog.String("error", err.Error()))
		}
	}

	if a.history != nil {
		_ = a.history.Close() //nolint:errcheck // best-effort cleanup
	}
}

// expandSources returns the explicit sources followed by every directory
// matched by patterns, without duplicates and never the destination itself.
func expandSources(dest string, explicit, globs []string) ([]string, error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}

	seen := make(map[string]bool)
	var sources []string

	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}

		if seen[abs] || abs == absDest {
			return nil
		}

		seen[abs] = true
		sources = append(sources, abs)

		return nil
	}

	for _, s := range explicit {
		if err := add(s); err != nil {
			return nil, err
		}
	}

	for _, pattern := range globs {
		matches, err := filepath.Glob(config.ExpandPath(pattern, nil))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}

		sort.Strings(matches)

		for _, match := range matches {
			if info, err := os.Stat(match); err != nil || !info.IsDir() {
				continue
			}

			if err := add(match); err != nil {
				return nil, err
			}
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no source folders given or matched")
	}

	return sources, nil
}

func buildRequest(args []string) (manager.Request, error) {
	sources, err := expandSources(args[0], args[1:], patterns)
	if err != nil {
		return manager.Request{}, err
	}

	return manager.Request{
		Destination:   args[0],
		Sources:       sources,
		IncludeHidden: includeHidden,
	}, nil
}

func runPlan(_ *cobra.Command, args []string) error {
	req, err := buildRequest(args)
	if err != nil {
		return err
	}

	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	req.IncludeHidden = req.IncludeHidden || a.cfg.IncludeHidden

	mgr, err := a.newManager()
	if err != nil {
		return err
	}

	return runWithCancellation(func(ctx context.Context) error {
		return runPlanWithManager(ctx, mgr, req, os.Stdout)
	})
}

func runPlanWithManager(ctx context.Context, m manager.Analyzer, req manager.Request, w io.Writer) error {
	plan, err := m.AnalyzeWithContext(ctx, req)
	if err != nil {
		return err
	}

	printPlan(w, plan, req.Destination, showDiff)

	return nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	if dryRun {
		return runPlan(cmd, args)
	}

	req, err := buildRequest(args)
	if err != nil {
		return err
	}

	logOut := io.Writer(os.Stdout)
	if interactive {
		if !tui.IsTerminal() {
			return fmt.Errorf("interactive mode requires a terminal; drop -i for non-interactive use")
		}

		logOut = io.Discard
	}

	a, err := openApp(logOut)
	if err != nil {
		return err
	}
	defer a.Close()

	req.IncludeHidden = req.IncludeHidden || a.cfg.IncludeHidden

	mgr, err := a.newManager()
	if err != nil {
		return err
	}

	if interactive {
		return tui.Run(mgr, req)
	}

	return runWithCancellation(func(ctx context.Context) error {
		res, err := runMergeWithManager(ctx, mgr, req, os.Stdout)
		if res != nil && exportEmpty != "" {
			return errors.Join(err, exportCached(a.tracker, res.Cached, exportEmpty, os.Stdout))
		}

		return err
	})
}

func runMergeWithManager(ctx context.Context, m manager.Merger, req manager.Request, w io.Writer) (*manager.Result, error) {
	res, err := m.MergeWithContext(ctx, req)
	if res != nil {
		printRunSummary(w, res, err)
	}

	return res, err
}

// exportCached copies the structure of each cached folder into dir, next to
// each other under their display names.
func exportCached(c cache.FolderCache, cached []cache.CachedFolder, dir string, w io.Writer) error {
	var errs []error

	for _, f := range cached {
		target := filepath.Join(dir, f.DisplayName)
		if err := c.SaveAs(f.CachedPath, target); err != nil {
			errs = append(errs, err)
			continue
		}

		fmt.Fprintf(w, "Exported %s to %s\n", f.OriginalPath, target)
	}

	return errors.Join(errs...)
}

func printPlan(w io.Writer, plan *manager.Plan, dest string, withDiff bool) {
	fmt.Fprintf(w, "Merge plan for %s\n\n", dest)

	for _, a := range plan.Actions {
		target := a.DestPath
		if rel, err := filepath.Rel(dest, a.DestPath); err == nil {
			target = rel
		}

		line := fmt.Sprintf("  %-7s %s -> %s", a.Kind, a.SourcePath, target)
		if a.Reason != "" {
			line += " (" + a.Reason + ")"
		}

		fmt.Fprintln(w, line)

		if withDiff && a.Kind == manager.ActionRename {
			text, err := manager.CollisionDiff(a)
			if err != nil {
				fmt.Fprintf(w, "    no diff: %v\n", err)
				continue
			}

			fmt.Fprint(w, text)
		}
	}

	s := plan.Summary
	fmt.Fprintf(w, "\n%d files: %d to move, %d to skip, %d to rename\n",
		s.TotalFiles, s.FilesToMove, s.FilesToSkip, s.FilesToRename)
	fmt.Fprintf(w, "%d directories to create, %d source folders left empty\n",
		s.DirectoriesToCreate, s.EmptySourceFolders)

	if s.Errors > 0 {
		fmt.Fprintf(w, "%d entries could not be read\n", s.Errors)
	}
}

func printRunSummary(w io.Writer, res *manager.Result, runErr error) {
	switch {
	case runErr != nil:
		fmt.Fprintf(w, "Merge failed: %v\n", runErr)
	case res.Outcome == manager.OutcomeCancelled:
		fmt.Fprintln(w, "Merge cancelled")
	default:
		fmt.Fprintln(w, "Merge complete")
	}

	fmt.Fprintf(w, "  Files moved:         %d\n", res.Stats.FilesMoved)
	fmt.Fprintf(w, "  Files skipped:       %d\n", res.Stats.FilesSkipped)
	fmt.Fprintf(w, "  Files renamed:       %d\n", res.Stats.FilesRenamed)
	fmt.Fprintf(w, "  Directories created: %d\n", res.Stats.DirectoriesCreated)
	fmt.Fprintf(w, "  Errors:              %d\n", res.Stats.Errors)

	if res.BackupID != "" {
		fmt.Fprintf(w, "Backup: %s\n", res.BackupID)
	}

	for _, c := range res.Cached {
		fmt.Fprintf(w, "Cached empty folder %s\n", c.OriginalPath)
	}
}

// runWithCancellation runs a context-aware function with signal-based cancellation.
// It sets up SIGINT/SIGTERM handling and cancels the context when a signal is received.
func runWithCancellation(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nOperation canceled by user")
			cancel()
		case <-ctx.Done():
		}
	}()

	return fn(ctx)
}

func runBackupsList(_ *cobra.Command, _ []string) error {
	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	return listBackups(a.ledger, os.Stdout)
}

func listBackups(l *ledger.Ledger, w io.Writer) error {
	backups, err := l.List()
	if err != nil {
		return err
	}

	if len(backups) == 0 {
		fmt.Fprintf(w, "No backups in %s\n", l.Dir())
		return nil
	}

	for _, b := range backups {
		fmt.Fprintf(w, "%s  %s  %3d operations  %s\n",
			b.ID, b.Timestamp.Format("2006-01-02 15:04:05"), b.Entries, b.Destination)
	}

	return nil
}

func runBackupsShow(_ *cobra.Command, args []string) error {
	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	return showBackup(a.ledger, a.history, args[0], os.Stdout)
}

func showBackup(l *ledger.Ledger, history *state.Store, id string, w io.Writer) error {
	b, err := l.Load(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Backup %s (%s)\n", b.ID, b.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Destination: %s\n", b.Destination)

	for _, s := range b.Sources {
		fmt.Fprintf(w, "Source: %s\n", s)
	}

	if history != nil {
		runs, err := history.RunsForBackup(b.ID)
		if err != nil {
			return err
		}

		for _, r := range runs {
			fmt.Fprintf(w, "Run: %s  %s  %s\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Outcome)
		}
	}

	fmt.Fprintln(w)

	for _, e := range b.Entries {
		fmt.Fprintf(w, "  %-6s %s -> %s\n", e.Type, e.Source, e.Destination)
	}

	return nil
}

func runBackupsRestore(_ *cobra.Command, args []string) error {
	a, err := openApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	return restoreBackup(a.ledger, args[0], simulate, os.Stdout)
}

func restoreBackup(l *ledger.Ledger, id string, simulateOnly bool, w io.Writer) error {
	report, err := l.Restore(id, simulateOnly)
	fmt.Fprintln(w, report.Message)

	var missing *ledger.MissingFilesError
	if errors.As(err, &missing) {
		for _, p := range missing.Paths {
			fmt.Fprintf(w, "  missing: %s\n", p)
		}
	}

	return err
}

func runBackupsDelete(_ *cobra.Command, args []string) error {
	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ledger.Delete(args[0]); err != nil {
		return err
	}

	if err := a.history.ClearBackup(args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted backup %s\n", args[0])

	return nil
}

func runHistory(_ *cobra.Command, _ []string) error {
	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if historyKeep > 0 {
		if err := pruneHistory(a.history, historyKeep, os.Stdout); err != nil {
			return err
		}
	}

	return printHistory(a.history, historyLimit, os.Stdout)
}

func pruneHistory(s *state.Store, keep int, w io.Writer) error {
	if err := s.PruneHistory(keep); err != nil {
		return err
	}

	fmt.Fprintf(w, "Kept the %d most recent runs\n\n", keep)

	return nil
}

func printHistory(s *state.Store, limit int, w io.Writer) error {
	runs, err := s.ListRuns(limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No merges recorded.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-9s  moved %d, skipped %d, renamed %d  %s",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Outcome,
			r.FilesMoved, r.FilesSkipped, r.FilesRenamed, r.Destination)

		if r.BackupID != "" {
			fmt.Fprintf(w, "  [backup %s]", r.BackupID)
		}

		fmt.Fprintln(w)

		if r.ErrorMessage != "" {
			fmt.Fprintf(w, "    %s\n", r.ErrorMessage)
		}
	}

	return nil
}
