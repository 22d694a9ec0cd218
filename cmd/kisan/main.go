// Command kisan translates dashboard text into Hindi with a persistent cache.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aayush997726/kisan"
	"github.com/aayush997726/kisan/cache"
	"github.com/aayush997726/kisan/internal/app"
	"github.com/aayush997726/kisan/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	v       *viper.Viper
	cfgFile string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	c := &cli{v: viper.New(), stdin: os.Stdin, stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           kisan.Name,
		Short:         kisan.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "YAML config file")
	flags.String("provider", "", "Translation provider: gemini, openai or mock")
	flags.String("model", "", "Model name for the provider")
	flags.String("store", "", "Cache store: bolt, memory or redis")
	flags.String("store-path", "", "Bolt database path")
	flags.String("redis-url", "", "Redis URL for the redis store")
	flags.Duration("cache-expiry", 0, "Discard persisted translations older than this")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.Bool("single-flight", false, "Coalesce concurrent requests for the same text")
	flags.Int("retries", 0, "Retries for transient provider errors")
	flags.Int("rpm", 0, "Provider requests per minute, 0 for unlimited")
	flags.Bool("breaker", false, "Stop calling a failing provider for a while")

	for _, name := range []string{
		"provider", "model", "store", "store-path", "redis-url", "cache-expiry",
		"log-level", "single-flight", "retries", "rpm", "breaker",
	} {
		_ = c.v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}

	root.AddCommand(
		c.translateCmd(),
		c.htmlCmd(),
		c.keyCmd(),
		c.langCmd(),
		c.cacheCmd(),
		c.versionCmd(),
	)
	return root
}

// open loads the environment, overlays the config file and flags, and
// wires the application.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
		c.v.SetConfigType("yaml")
		if err := c.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg.Overlay(c.v)

	return app.New(ctx, cfg, c.stderr)
}

func (c *cli) translateCmd() *cobra.Command {
	var (
		lang  string
		batch bool
	)

	cmd := &cobra.Command{
		Use:   "translate [TEXT...]",
		Short: "Translate texts, one per argument or one per stdin line",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := kisan.ParseLanguage(lang)
			if err != nil {
				return err
			}

			texts := args
			if len(texts) == 0 {
				if texts, err = readLines(c.stdin); err != nil {
					return err
				}
			}

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var out []string
			if batch {
				out = a.Translator.TranslateBatch(cmd.Context(), texts, target)
			} else {
				out = make([]string, len(texts))
				for i, text := range texts {
					out[i] = a.Translator.TranslateOne(cmd.Context(), text, target)
				}
			}

			for _, line := range out {
				fmt.Fprintln(c.stdout, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", string(kisan.LangHindi), "Target language")
	cmd.Flags().BoolVar(&batch, "batch", false, "Send all uncached texts in one request")
	return cmd
}

func (c *cli) htmlCmd() *cobra.Command {
	var (
		lang    string
		output  string
		jsonOut bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "html [FILE]",
		Short: "Translate the text nodes of an HTML document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := kisan.ParseLanguage(lang)
			if err != nil {
				return err
			}

			input, name, err := readInput(c.stdin, args)
			if err != nil {
				return err
			}

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !quiet {
				fmt.Fprintf(c.stderr, "Translating %s to %s...\n", name, kisan.GetLanguageName(target))
			}

			start := time.Now()
			result, err := a.Translator.TranslateHTML(cmd.Context(), input, target)
			if err != nil {
				return fmt.Errorf("translation failed: %w", err)
			}
			elapsed := time.Since(start)

			var out io.Writer = c.stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			if jsonOut {
				return outputJSON(out, result, elapsed)
			}

			fmt.Fprint(out, result.Content)

			if !quiet {
				fmt.Fprintf(c.stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
				fmt.Fprintf(c.stderr, "  Nodes found:  %d\n", result.TotalNodes)
				fmt.Fprintf(c.stderr, "  Translated:   %d\n", result.TranslatedCount)
				fmt.Fprintf(c.stderr, "  From cache:   %d\n", result.CachedCount)
				fmt.Fprintf(c.stderr, "  Untranslated: %d\n", result.FallbackCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", string(kisan.LangHindi), "Target language")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output result as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

func (c *cli) keyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "t KEY [FALLBACK]",
		Short: "Resolve a UI key in the current language",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			fallback := ""
			if len(args) == 2 {
				fallback = args[1]
			}

			text := a.Localizer.T(args[0], fallback)
			if a.Localizer.IsTranslating() {
				a.Localizer.Wait()
				text = a.Localizer.T(args[0], fallback)
			}
			fmt.Fprintln(c.stdout, text)
			return nil
		},
	}
}

func (c *cli) langCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "lang [en|hi|toggle]",
		Short:     "Show or change the interface language",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"en", "hi", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			switch {
			case len(args) == 0:
			case args[0] == "toggle":
				a.Localizer.Toggle(cmd.Context())
			default:
				lang, err := kisan.ParseLanguage(args[0])
				if err != nil {
					return err
				}
				if err := a.Localizer.SetLanguage(cmd.Context(), lang); err != nil {
					return err
				}
			}

			fmt.Fprintln(c.stdout, a.Localizer.Language())
			return nil
		},
	}
}

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the translation cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show the number of cached translations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.open(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				fmt.Fprintf(c.stdout, "Store:    %s\n", a.Config.Store)
				fmt.Fprintf(c.stdout, "Entries:  %d\n", a.Translator.Len())
				fmt.Fprintf(c.stdout, "Expiry:   %s\n", a.Config.CacheExpiry)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached translation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.open(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				n := a.Translator.Len()
				a.Translator.Clear(cmd.Context())
				fmt.Fprintf(c.stdout, "Cleared %d translations\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "export FILE",
			Short: "Write cached translations to a JSON file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.open(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				meta := map[string]string{"version": kisan.FullVersion()}
				if err := cache.NewExporter(a.Translator).ExportToFile(args[0], meta); err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "Exported %d translations to %s\n", a.Translator.Len(), args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Load translations from a JSON export",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.open(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				result, err := cache.NewImporter(a.Translator).ImportFromFile(args[0])
				if err != nil {
					return err
				}
				a.Translator.Flush(cmd.Context())
				fmt.Fprintf(c.stdout, "Imported %d translations (%d skipped)\n", result.Imported, result.Failed)
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.stdout, "%s %s\n", kisan.Name, kisan.FullVersion())
			if kisan.BuildDate != "unknown" && kisan.BuildDate != "" {
				fmt.Fprintf(c.stdout, "  built:   %s\n", kisan.BuildDate)
			}
		},
	}
}

// readInput returns the named file, or stdin when no file is given.
func readInput(stdin io.Reader, args []string) (content, name string, err error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(args[0]) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), args[0], nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return lines, nil
}

// JSONOutput is the --json result of the html command.
type JSONOutput struct {
	Content         string `json:"content"`
	TotalNodes      int    `json:"total_nodes"`
	TranslatedCount int    `json:"translated_count"`
	CachedCount     int    `json:"cached_count"`
	FallbackCount   int    `json:"fallback_count"`
	ElapsedMs       int64  `json:"elapsed_ms"`
}

func outputJSON(w io.Writer, result *kisan.ProcessedContent, elapsed time.Duration) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONOutput{
		Content:         result.Content,
		TotalNodes:      result.TotalNodes,
		TranslatedCount: result.TranslatedCount,
		CachedCount:     result.CachedCount,
		FallbackCount:   result.FallbackCount,
		ElapsedMs:       elapsed.Milliseconds(),
	})
}
