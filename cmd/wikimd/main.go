package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gubarz/wikimd/internal/config"
	"github.com/gubarz/wikimd/internal/executor"
	"github.com/gubarz/wikimd/internal/logger"
	"github.com/gubarz/wikimd/internal/parser"
	"github.com/gubarz/wikimd/internal/render"
	"github.com/gubarz/wikimd/internal/ui"
	"github.com/gubarz/wikimd/internal/wiki"
)

var version = "0.1.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "wikimd [root...]",
	Short: "Browse a folder of Markdown notes as a linked wiki",
	Long: `Personal wiki reader for plain Markdown files.

Headers declare keywords, and every mention of a keyword in the body
becomes a link to that header. Later roots override earlier ones, so a
campaign folder can shadow entries from a shared world folder.`,
	Args: cobra.ArbitraryArgs,
	RunE: runBrowse,
}

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Render one file with its keyword links",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank headers matching a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List the keyword index",
	Args:  cobra.NoArgs,
	RunE:  runKeywords,
}

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Manage the configured root directories",
}

var rootsAddCmd = &cobra.Command{
	Use:   "add <dir>",
	Short: "Append a root directory and save the config",
	Args:  cobra.ExactArgs(1),
	RunE:  runRootsAdd,
}

var rootsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured roots in precedence order",
	Args:  cobra.NoArgs,
	RunE:  runRootsList,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootsCmd.AddCommand(rootsAddCmd, rootsListCmd)
	rootCmd.AddCommand(showCmd, searchCmd, keywordsCmd, rootsCmd)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/wikimd/wikimd.yaml)")
	rootCmd.PersistentFlags().StringArray("root", nil, "Root directory, repeatable; later roots override earlier ones")
	rootCmd.PersistentFlags().Bool("case-sensitive", false, "Match keywords and search case-sensitively")
	rootCmd.PersistentFlags().BoolP("benchmark", "b", false, "Benchmark index time and exit")
	rootCmd.PersistentFlags().Int("wrap", 0, "Wrap body text at this width (0 uses the config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.Flags().StringP("query", "q", "", "Start on the search screen with this query")

	showCmd.Flags().Bool("plain", false, "Print plain text with [text](path#Lline) links")
	showCmd.Flags().Bool("html", false, "Print an HTML fragment")

	searchCmd.Flags().Bool("all", false, "Print every match instead of the top results")

	keywordsCmd.Flags().StringP("output", "o", "table", "Output format: table, yaml")

	viper.BindPFlag("wrap", rootCmd.PersistentFlags().Lookup("wrap"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if configFile != "" {
		config.SetFile(configFile)
	}
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
	logger.Setup(config.GetLogLevel(), config.GetLogFormat(), nil)
}

// ============================================================================
// Wiki Setup
// ============================================================================

// resolveRoots collects roots from args and --root flags, falling back to the
// config. Paths are made absolute so RootOf can compare them.
func resolveRoots(cmd *cobra.Command, args []string) ([]string, error) {
	flagRoots, _ := cmd.Flags().GetStringArray("root")
	roots := append(append([]string{}, flagRoots...), args...)
	if len(roots) == 0 {
		roots = config.GetRoots()
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w (try: wikimd roots add <dir>)", wiki.ErrNoRoots)
	}

	abs := make([]string, 0, len(roots))
	for _, root := range roots {
		path, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("error resolving root %s: %w", root, err)
		}
		abs = append(abs, path)
	}
	return abs, nil
}

// caseSensitive returns the flag value when given, else the saved setting
func caseSensitive(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("case-sensitive") {
		on, _ := cmd.Flags().GetBool("case-sensitive")
		return on
	}
	return config.GetCaseSensitive()
}

// openWiki scans roots and prints benchmark stats when asked.
// A nil wiki with a nil error means the benchmark already ran.
func openWiki(cmd *cobra.Command, roots []string) (*wiki.Wiki, error) {
	return benchmarked(cmd, func(p *parser.Parser) (*wiki.Wiki, error) {
		return wiki.New(p, roots, caseSensitive(cmd))
	})
}

// openFile indexes a single file when no roots are configured
func openFile(cmd *cobra.Command, path string) (*wiki.Wiki, error) {
	return benchmarked(cmd, func(p *parser.Parser) (*wiki.Wiki, error) {
		return wiki.NewFile(p, path, caseSensitive(cmd))
	})
}

func benchmarked(cmd *cobra.Command, open func(*parser.Parser) (*wiki.Wiki, error)) (*wiki.Wiki, error) {
	benchmark, _ := cmd.Flags().GetBool("benchmark")
	start := time.Now()

	p := parser.NewParser(parser.WithExtensions(config.GetExtensions()...))
	w, err := open(p)
	if err != nil {
		return nil, err
	}

	if benchmark {
		elapsed := time.Since(start)
		idx := w.Index()
		// Force GC and get memory stats
		runtime.GC()
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Indexed %d files, %d headers, %d keywords in %v\n",
			len(idx.Files), len(idx.Headers), len(idx.Keywords), elapsed)
		fmt.Fprintf(out, "Memory: Alloc=%dMB, TotalAlloc=%dMB, Sys=%dMB, HeapObjects=%d\n",
			m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.HeapObjects)
		return nil, nil
	}
	return w, nil
}

// ============================================================================
// Commands
// ============================================================================

func runBrowse(cmd *cobra.Command, args []string) error {
	var opts ui.Options
	opts.Query, _ = cmd.Flags().GetString("query")

	// A single file argument opens that file with its folder as the root
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("error resolving path: %w", err)
			}
			opts.Path = path
			args = []string{filepath.Dir(path)}
		}
	}

	roots, err := resolveRoots(cmd, args)
	if err != nil {
		return err
	}
	w, err := openWiki(cmd, roots)
	if err != nil || w == nil {
		return err
	}

	return ui.Run(w, executor.NewExecutor(), opts)
}

func runShow(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("error resolving path: %w", err)
	}

	var w *wiki.Wiki
	roots, err := resolveRoots(cmd, nil)
	switch {
	case errors.Is(err, wiki.ErrNoRoots):
		w, err = openFile(cmd, path)
	case err == nil:
		w, err = openWiki(cmd, roots)
	}
	if err != nil || w == nil {
		return err
	}

	doc, err := w.Document(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	plain, _ := cmd.Flags().GetBool("plain")
	asHTML, _ := cmd.Flags().GetBool("html")
	switch {
	case asHTML:
		fmt.Fprintln(out, render.HTML(doc))
	case plain:
		fmt.Fprintln(out, render.Plain(doc, w.Linker()))
	default:
		styles := render.DefaultStyles()
		styles.LoadFromConfig()
		fmt.Fprintln(out, render.Terminal(doc, styles, config.GetWrap(), -1).Content)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	roots, err := resolveRoots(cmd, nil)
	if err != nil {
		return err
	}
	w, err := openWiki(cmd, roots)
	if err != nil || w == nil {
		return err
	}

	query := strings.Join(args, " ")
	results := w.Search(query)
	if results.Len() == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No headers match %q\n", query)
		return nil
	}

	entries := results.Top()
	if all, _ := cmd.Flags().GetBool("all"); all {
		entries = results.All
	}
	writeResults(cmd.OutOrStdout(), w, entries)
	if len(entries) < results.Len() {
		fmt.Fprintf(cmd.OutOrStdout(), "(%d more, use --all)\n", results.Len()-len(entries))
	}
	return nil
}

// writeResults prints numbered results with their location and preview
func writeResults(out io.Writer, w *wiki.Wiki, entries []parser.HeaderEntry) {
	for i, entry := range entries {
		_, rel := w.RootOf(entry.Path)
		fmt.Fprintf(out, "%d. %s  (%s:%d)\n", i+1, entry.Text, rel, entry.Line)
		if entry.Preview != "" {
			fmt.Fprintf(out, "   %s\n", entry.Preview)
		}
	}
}

// keywordRow is one keyword index entry in yaml output
type keywordRow struct {
	Keyword string `yaml:"keyword"`
	Header  string `yaml:"header"`
	Path    string `yaml:"path"`
	Line    int    `yaml:"line"`
}

func runKeywords(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	if format != "table" && format != "yaml" {
		return fmt.Errorf("unsupported output format: %s (supported: table, yaml)", format)
	}

	roots, err := resolveRoots(cmd, nil)
	if err != nil {
		return err
	}
	w, err := openWiki(cmd, roots)
	if err != nil || w == nil {
		return err
	}

	keywords := w.Index().Keywords
	names := make([]string, 0, len(keywords))
	for name := range keywords {
		names = append(names, name)
	}
	slices.Sort(names)

	rows := make([]keywordRow, 0, len(names))
	for _, name := range names {
		target := keywords[name]
		_, rel := w.RootOf(target.Path)
		rows = append(rows, keywordRow{Keyword: name, Header: target.Text, Path: rel, Line: target.Line})
	}

	out := cmd.OutOrStdout()
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(rows)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEYWORD", "HEADER", "FILE", "LINE")
	for _, row := range rows {
		t.Row(row.Keyword, row.Header, row.Path, fmt.Sprint(row.Line))
	}
	fmt.Fprintln(out, t.String())
	return nil
}

func runRootsAdd(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("error resolving path: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if !config.AddRoot(dir) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already a root\n", dir)
		return nil
	}
	if err := config.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (saved to %s)\n", dir, config.Path())
	return nil
}

func runRootsList(cmd *cobra.Command, args []string) error {
	roots := config.GetRoots()
	out := cmd.OutOrStdout()
	if len(roots) == 0 {
		fmt.Fprintln(out, "No roots configured")
		return nil
	}
	for i, root := range roots {
		note := ""
		if _, err := os.Stat(root); err != nil {
			note = "  (missing)"
		}
		fmt.Fprintf(out, "%d. %s%s\n", i+1, root, note)
	}
	fmt.Fprintln(out, "Later roots override keywords from earlier ones.")
	return nil
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
