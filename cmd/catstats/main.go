// Package main provides the CLI entrypoint for catstats.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/catstats/internal/chart"
	"github.com/verte-zerg/catstats/internal/config"
	"github.com/verte-zerg/catstats/internal/model"
	"github.com/verte-zerg/catstats/internal/report"
	"github.com/verte-zerg/catstats/internal/shots"
	"github.com/verte-zerg/catstats/internal/state"
	"github.com/verte-zerg/catstats/internal/store"
	"github.com/verte-zerg/catstats/internal/tui"
)

const (
	defaultTitle     = "'Cats Stats - Basketball Chart Utility"
	defaultWidth     = 500
	defaultHeight    = 500
	defaultExportDir = "."
	defaultChartRows = 12
	debugEnv         = "CATSTATS_DEBUG"
)

var (
	chartWidth     int
	chartHeight    int
	chartExportDir string
	profileName    string

	freqValues []string
	pctValues  []string

	showRows  int
	showColor bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "catstats",
		Short:         "Shot profile chart utility",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runEditorCmd,
	}

	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "saved profile to load")
	rootCmd.PersistentFlags().IntVar(&chartWidth, "width", defaultWidth, "exported chart width in pixels")
	rootCmd.PersistentFlags().IntVar(&chartHeight, "height", defaultHeight, "exported chart height in pixels")
	rootCmd.PersistentFlags().StringVar(&chartExportDir, "export-dir", defaultExportDir, "directory for chart.png")

	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newSaveCmd())
	rootCmd.AddCommand(newProfilesCmd())
	rootCmd.AddCommand(newCategoriesCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addValueFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&freqValues, "freq", nil, `frequency as "Category=value" (repeatable)`)
	cmd.Flags().StringArrayVar(&pctValues, "pct", nil, `percentile as "Category=value" (repeatable)`)
}

func runEditorCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	chartCfg := resolveChartConfig(cmd, fileCfg)
	if err := validateChartConfig(chartCfg); err != nil {
		return err
	}
	applyStringConfig(cmd, "profile", &profileName, fileCfg.Profiles.Default)

	st := openStore()
	if st != nil {
		defer closeStore(st)
	}
	initial, err := loadInitial(st, profileName)
	if err != nil {
		return err
	}

	closeLog, err := setupTUILogging()
	if err != nil {
		return err
	}
	defer closeLog()

	owner := state.New(initial)
	editor := tui.NewModel(owner, st, tui.Options{
		Chart:   chartCfg,
		Profile: profileName,
		Color:   os.Getenv("NO_COLOR") == "",
	})
	program := tea.NewProgram(editor, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the shot table and chart",
		Args:  cobra.NoArgs,
		RunE:  runShowCmd,
	}
	addValueFlags(cmd)
	cmd.Flags().IntVar(&showRows, "rows", defaultChartRows, "chart height in terminal lines")
	cmd.Flags().BoolVar(&showColor, "color", false, "force colour output")
	return cmd
}

func runShowCmd(cmd *cobra.Command, _ []string) error {
	data, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), data, report.Options{ChartRows: showRows, ForceColor: showColor})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the chart to chart.png",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	addValueFlags(cmd)
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	chartCfg := resolveChartConfig(cmd, fileCfg)
	if err := validateChartConfig(chartCfg); err != nil {
		return err
	}
	data, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	if !shots.IsBalanced(data) {
		logErrln(shots.BalanceWarning)
	}
	path, err := chart.Export(shots.ToChartPoints(data), chart.Options{
		Width:  chartCfg.Width,
		Height: chartCfg.Height,
		Title:  chartCfg.Title,
	}, chartCfg.ExportDir)
	if errors.Is(err, chart.ErrNoSlices) {
		logErrln("nothing to export: no category has a frequency")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to export chart: %w", err)
	}
	logErrf("Wrote %s\n", path)
	return nil
}

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save values as a named profile",
		Args:  cobra.ExactArgs(1),
		RunE:  runSaveCmd,
	}
	addValueFlags(cmd)
	return cmd
}

func runSaveCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)
	base, err := loadInitial(st, profileName)
	if err != nil {
		return err
	}
	data, err := applyValues(base, freqValues, pctValues)
	if err != nil {
		return err
	}
	profile, err := st.SaveProfile(context.Background(), args[0], data)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	logErrf("Saved profile %q\n", profile.Name)
	return nil
}

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List saved profiles",
		Args:  cobra.NoArgs,
		RunE:  runProfilesCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteProfileCmd,
	})
	return cmd
}

func runProfilesCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)
	profiles, err := st.ListProfiles(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(profiles) == 0 {
		logErrln("No saved profiles. Save one with: catstats save <name>")
		return nil
	}
	return writeProfiles(cmd.OutOrStdout(), profiles)
}

func writeProfiles(w io.Writer, profiles []model.Profile) error {
	width := 0
	for _, p := range profiles {
		if len(p.Name) > width {
			width = len(p.Name)
		}
	}
	for _, p := range profiles {
		if _, err := fmt.Fprintf(w, "%-*s  updated %s\n", width, p.Name, humanize.Time(p.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runDeleteProfileCmd(_ *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)
	if err := st.DeleteProfile(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	logErrf("Deleted profile %q\n", args[0])
	return nil
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List shot-type categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range model.Categories() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), c); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
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

// loadSnapshot starts from --profile, if any, and applies --freq/--pct.
func loadSnapshot(cmd *cobra.Command) (shots.Store, error) {
	base := shots.New()
	name := profileName
	if !cmd.Flags().Changed("profile") {
		fileCfg, err := loadFileConfig()
		if err != nil {
			return shots.Store{}, err
		}
		applyStringConfig(cmd, "profile", &name, fileCfg.Profiles.Default)
	}
	if name != "" {
		st := openStore()
		if st != nil {
			defer closeStore(st)
		}
		var err error
		if base, err = loadInitial(st, name); err != nil {
			return shots.Store{}, err
		}
	}
	return applyValues(base, freqValues, pctValues)
}

// openStore opens the profile database. A failure is reported and yields nil,
// which leaves saved profiles unavailable.
func openStore() *store.Store {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open db: %v; saved profiles unavailable\n", err)
		return nil
	}
	return st
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// loadInitial returns the named profile, or empty data when there is no name,
// no database, or no such profile.
func loadInitial(st *store.Store, name string) (shots.Store, error) {
	if name == "" {
		return shots.New(), nil
	}
	if st == nil {
		logErrf("profile %q unavailable; starting empty\n", name)
		return shots.New(), nil
	}
	loaded, err := st.LoadProfile(context.Background(), name)
	switch {
	case errors.Is(err, store.ErrProfileNotFound):
		logErrf("profile %q not found; starting empty\n", name)
		return shots.New(), nil
	case err != nil:
		return shots.Store{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return loaded, nil
}

// applyValues applies "Category=value" assignments in order.
func applyValues(base shots.Store, freqs, pcts []string) (shots.Store, error) {
	data := base
	for _, raw := range freqs {
		c, v, err := parseAssignment(raw)
		if err != nil {
			return shots.Store{}, fmt.Errorf("invalid --freq value: %w", err)
		}
		if data, err = data.SetFrequency(c, v); err != nil {
			return shots.Store{}, err
		}
	}
	for _, raw := range pcts {
		c, v, err := parseAssignment(raw)
		if err != nil {
			return shots.Store{}, fmt.Errorf("invalid --pct value: %w", err)
		}
		if data, err = data.SetPercentile(c, v); err != nil {
			return shots.Store{}, err
		}
	}
	return data, nil
}

func parseAssignment(raw string) (model.Category, float64, error) {
	idx := strings.LastIndex(raw, "=")
	if idx < 0 {
		return "", 0, fmt.Errorf("expected Category=value, got %q", raw)
	}
	name := raw[:idx]
	c, ok := model.ParseCategory(name)
	if !ok {
		return "", 0, fmt.Errorf("%w: %q (run: catstats categories)", shots.ErrInvalidCategory, strings.TrimSpace(name))
	}
	return c, shots.ParseValue(raw[idx+1:]), nil
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func resolveChartConfig(cmd *cobra.Command, fileCfg config.FileConfig) model.ChartConfig {
	width, height, exportDir := chartWidth, chartHeight, chartExportDir
	title := defaultTitle
	applyIntConfig(cmd, "width", &width, fileCfg.Chart.Width)
	applyIntConfig(cmd, "height", &height, fileCfg.Chart.Height)
	applyStringConfig(cmd, "export-dir", &exportDir, fileCfg.Chart.ExportDir)
	if fileCfg.Chart.Title != nil {
		title = *fileCfg.Chart.Title
	}
	return model.ChartConfig{
		Width:     width,
		Height:    height,
		ExportDir: exportDir,
		Title:     title,
	}
}

func validateChartConfig(cfg model.ChartConfig) error {
	if cfg.Width <= 0 {
		return fmt.Errorf("--width must be > 0")
	}
	if cfg.Height <= 0 {
		return fmt.Errorf("--height must be > 0")
	}
	if strings.TrimSpace(cfg.ExportDir) == "" {
		return fmt.Errorf("--export-dir must not be empty")
	}
	return nil
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

// setupTUILogging keeps diagnostics off the alt screen: they go to the file
// named by CATSTATS_DEBUG, or nowhere.
func setupTUILogging() (func(), error) {
	path := strings.TrimSpace(os.Getenv(debugEnv))
	if path == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }, nil
	}
	f, err := tea.LogToFile(path, "catstats")
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of the debug log.
			_ = cerr
		}
		log.SetOutput(os.Stderr)
	}, nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# catstats configuration
# Uncomment a value to enable it. CLI flags override config values.

[chart]
# width = %d              # Exported chart width in pixels
# height = %d             # Exported chart height in pixels
# export-dir = %q        # Directory for chart.png
# title = %q

[profiles]
# default = ""            # Profile loaded at start
`,
		defaultWidth,
		defaultHeight,
		defaultExportDir,
		defaultTitle,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
