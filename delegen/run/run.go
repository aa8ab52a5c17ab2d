// Package run implements the delegen command in a testable way.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
	cache "github.com/toejough/mockdelegates/delegen/run/1_cache"
	load "github.com/toejough/mockdelegates/delegen/run/2_load"
	detect "github.com/toejough/mockdelegates/delegen/run/3_detect"
	mock "github.com/toejough/mockdelegates/delegen/run/4_mock"
	output "github.com/toejough/mockdelegates/delegen/run/6_output"
	"github.com/toejough/mockdelegates/internal/telemetry"
	"github.com/toejough/mockdelegates/internal/watch"
)

// Interfaces - Public

// FileSystem is everything delegen reads and writes.
type FileSystem interface {
	output.FileSystem
	Stat(name string) (fs.FileInfo, error)
}

// Functions - Public

// Run executes delegen. args include the program name, as in os.Args. getEnv supplies $GOFILE
// when gen runs under go generate without a file argument. Generated code and reports go to
// stdout, logs to stderr.
func Run(
	ctx context.Context,
	args []string,
	getEnv func(string) string,
	fileSys FileSystem,
	stdout, stderr io.Writer,
) error {
	a := &app{getEnv: getEnv, fs: fileSys, stdout: stdout, stderr: stderr, v: newViper()}

	root := a.rootCommand()
	root.SetOut(stdout)
	root.SetErr(stderr)

	rest := []string{}
	if len(args) > 1 {
		rest = args[1:]
	}

	root.SetArgs(rest)

	return root.ExecuteContext(ctx)
}

// Structs - Private

// app is one invocation's state. gen is built once flags and config are known.
type app struct {
	getEnv     func(string) string
	fs         FileSystem
	stdout     io.Writer
	stderr     io.Writer
	v          *viper.Viper
	configFile string
	gen        *generator
}

// unexported variables.
var (
	errNoSource       = errors.New("no source file: pass one or run under go generate")
	errNothingToWatch = errors.New("manifest lists no sources to watch")
)

func (a *app) genCommand() *cobra.Command {
	var (
		typeName  string
		line      int
		span      string
		noSibling bool
	)

	cmd := &cobra.Command{
		Use:   "gen [file]",
		Short: "Generate a mock delegate class for an interface or abstract class",
		Long: `Generate a mock delegate class for an interface or abstract class.

Every member of the source type gets a handler type, an event slot the test assigns, and an
overriding member that calls the slot when set or returns defaults when not. The source type is
chosen with --type, --line or --span; without them the file must declare exactly one candidate.
Under go generate the file defaults to $GOFILE.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := a.getEnv("GOFILE")
			if len(args) == 1 {
				file = args[0]
			}

			if file == "" {
				return errNoSource
			}

			if noSibling {
				a.gen.opts.Destination.Enabled = false
			}

			lang, err := load.ParseLanguage(a.gen.opts.Lang)
			if err != nil {
				return err
			}

			_, err = a.gen.generate(cmd.Context(), request{
				File:     file,
				Lang:     lang,
				TypeName: typeName,
				Line:     line,
				Span:     span,
			})

			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&typeName, "type", "t", "", "name of the interface or abstract class to mock")
	flags.IntVar(&line, "line", 0, "1-based line inside the declaration to mock")
	flags.StringVar(&span, "span", "", "start:end byte offsets inside the declaration to mock")
	flags.String("lang", string(load.Auto), "source language (auto, csharp, go)")
	flags.Bool("dry-run", false, "print the generated document instead of writing it")
	flags.Bool("diff", false, "print a unified diff against the existing document")
	flags.BoolVar(&noSibling, "no-sibling", false, "write into the source project instead of its .Mock sibling")

	_ = a.v.BindPFlag("lang", flags.Lookup("lang"))
	_ = a.v.BindPFlag("output.dry_run", flags.Lookup("dry-run"))
	_ = a.v.BindPFlag("output.diff", flags.Lookup("diff"))

	cmd.MarkFlagsMutuallyExclusive("type", "line", "span")

	return cmd
}

func (a *app) listCommand() *cobra.Command {
	var line int

	cmd := &cobra.Command{
		Use:   "list [file]",
		Short: "List mockable declarations in a file, or the recorded mocks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.listManifest()
			}

			return a.listFile(cmd.Context(), args[0], line)
		},
	}

	cmd.Flags().IntVar(&line, "line", 0, "show only the action offered at this 1-based line")

	return cmd
}

func (a *app) listFile(ctx context.Context, file string, line int) error {
	lang, err := load.ParseLanguage(a.gen.opts.Lang)
	if err != nil {
		return err
	}

	if lang, err = load.Resolve(lang, file); err != nil {
		return err
	}

	unit, err := a.gen.units.Load(ctx, file, func(ctx context.Context, path string, src []byte) (*syntax.CompilationUnit, error) {
		return load.Source(ctx, lang, path, src)
	})
	if err != nil {
		return err
	}

	if line > 0 {
		src, err := a.fs.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		sel, err := detect.ByLine(src, line)
		if err != nil {
			return err
		}

		action, ok := detect.ComputeAction(unit, sel)
		if !ok {
			fmt.Fprintf(a.stdout, "No action at %s:%d.\n", file, line)

			return nil
		}

		fmt.Fprintf(a.stdout, "%s: %s -> %s\n", action.Title, action.Target.Name, mock.ClassName(action.Target.Name))

		return nil
	}

	for _, decl := range detect.Candidates(unit) {
		fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", decl.Name, decl.Kind, mock.ClassName(decl.Name))
	}

	return nil
}

func (a *app) listManifest() error {
	manifest, err := output.ReadManifest(a.fs, a.gen.opts.Manifest.Path)
	if err != nil {
		return err
	}

	for _, e := range manifest.Entries {
		fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", e.Source, e.Type, e.Output)
	}

	return nil
}

// prepare resolves configuration and builds the generator shared by every subcommand.
func (a *app) prepare(*cobra.Command, []string) error {
	if err := readConfig(a.v, a.configFile); err != nil {
		return err
	}

	opts, err := decodeOptions(a.v)
	if err != nil {
		return err
	}

	recorder, err := telemetry.New()
	if err != nil {
		return err
	}

	logger := newLogger(opts, a.stderr)
	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}

	a.gen = &generator{
		fs:       a.fs,
		units:    cache.New(a.fs, opts.Cache.TTL),
		recorder: recorder,
		logger:   logger,
		out:      a.stdout,
		opts:     opts,
	}

	return nil
}

// regenerate rebuilds every recorded mock whose source is in changed. Failures are logged so
// one broken file does not stop the watch.
func (a *app) regenerate(ctx context.Context, changed []string) {
	manifest, err := output.ReadManifest(a.fs, a.gen.opts.Manifest.Path)
	if err != nil {
		a.gen.logger.Error("reading manifest", "error", err)

		return
	}

	for _, file := range changed {
		for _, entry := range manifest.ForSource(file) {
			lang, err := load.ParseLanguage(entry.Language)
			if err != nil {
				a.gen.logger.Warn("skipping manifest entry", "source", entry.Source, "error", err)

				continue
			}

			// Errors are already logged by generate.
			_, _ = a.gen.generate(ctx, request{File: entry.Source, Lang: lang, TypeName: entry.Type})
		}
	}

	hits, misses := a.gen.units.Stats()
	a.gen.logger.Debug("regenerated", "files", len(changed), "cache_hits", hits, "cache_misses", misses)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "delegen",
		Short: "Generate delegate-based mocks from interfaces and abstract classes",
		Long: `delegen generates mock classes whose members forward to assignable delegates.

Configuration is read from .delegen.yaml in the working directory (or --config), then DELEGEN_*
environment variables, then flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (default: ./.delegen.yaml)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (json, text)")
	flags.String("manifest", output.DefaultManifestPath, "manifest of generated documents")

	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("manifest.path", flags.Lookup("manifest"))

	root.AddCommand(a.genCommand(), a.watchCommand(), a.listCommand())

	return root
}

func (a *app) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate recorded mocks when their sources change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.watch(cmd.Context())
		},
	}
}

func (a *app) watch(ctx context.Context) (err error) {
	manifest, err := output.ReadManifest(a.fs, a.gen.opts.Manifest.Path)
	if err != nil {
		return err
	}

	sources := manifest.Sources()
	if len(sources) == 0 {
		return errNothingToWatch
	}

	watcher, err := watch.New(watch.Config{
		Files:    sources,
		Debounce: a.gen.opts.Watch.Debounce,
		OnError: func(err error) {
			a.gen.logger.Warn("watch error", "error", err)
		},
	})
	if err != nil {
		return err
	}

	defer func() {
		if stopErr := watcher.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	changes, err := watcher.Start()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Watching %d source files.\n", len(sources))

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-changes:
			if !ok {
				return nil
			}

			for i, file := range batch {
				batch[i] = filepath.Clean(file)
			}

			a.regenerate(ctx, batch)
		}
	}
}
