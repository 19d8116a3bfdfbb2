package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sourcepack/pkg/config"
	"sourcepack/pkg/pack"
	"sourcepack/pkg/source"
)

// packFlags holds the raw flag values of the pack command. Only flags the user
// actually set override the loaded configuration.
type packFlags struct {
	output         string
	format         string
	mode           string
	compress       bool
	noIgnoreGit    bool
	noIgnoreBuild  bool
	noIgnoreGradle bool
	ignoreFiles    string
	ignoreExts     string
	ignorePatterns []string
	ignoreFrom     string
	ignoreCase     bool
	maxFileSize    int64
	branch         string
	cloneTimeout   time.Duration
	cloneDepth     int
}

func newPackCmd(a *app) *cobra.Command {
	f := &packFlags{}

	cmd := &cobra.Command{
		Use:   "pack <directory|repository>",
		Short: "Pack a directory or repository into one document",
		Long: `Pack walks a local directory, or a shallow clone of a remote git repository,
and writes every included file into a single Markdown or XML document.

Built-in rules skip .git, build and Gradle directories; more files can be left
out by name, extension or gitignore-style pattern. Binary files and files above
--max-file-size appear as placeholders.`,
		Example: `  sourcepack pack ./myproject
  sourcepack pack https://github.com/user/repo.git -f xml -o repo.xml
  sourcepack pack . --compress --ignore-exts log,tmp,lock --ignore-pattern 'testdata/'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, a, f, args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "Output file (default <name>.md or <name>.xml next to the source)")
	fl.StringVarP(&f.format, "format", "f", string(config.FormatMarkdown), "Output format: markdown or xml")
	fl.StringVarP(&f.mode, "mode", "m", string(config.ModeFull), "Output mode: full or tree")
	fl.BoolVar(&f.compress, "compress", false, "Strip redundant whitespace from text files")
	fl.BoolVar(&f.noIgnoreGit, "no-ignore-git", false, "Include .git directories")
	fl.BoolVar(&f.noIgnoreBuild, "no-ignore-build", false, "Include build directories")
	fl.BoolVar(&f.noIgnoreGradle, "no-ignore-gradle", false, "Include .gradle and gradle directories")
	fl.StringVar(&f.ignoreFiles, "ignore-files", "", "Comma-separated file or directory names to skip")
	fl.StringVar(&f.ignoreExts, "ignore-exts", "", "Comma-separated extensions to skip (default log,tmp)")
	fl.StringArrayVar(&f.ignorePatterns, "ignore-pattern", nil, "Gitignore-style pattern to skip (repeatable)")
	fl.StringVar(&f.ignoreFrom, "ignore-from", "", "File of gitignore-style patterns to skip")
	fl.BoolVar(&f.ignoreCase, "ignore-case", false, "Match --ignore-files and --ignore-exts case-insensitively")
	fl.Int64Var(&f.maxFileSize, "max-file-size", 0, "Render files larger than this many bytes as placeholders (0 = no limit)")
	fl.StringVar(&f.branch, "branch", "", "Branch to fetch from a remote repository")
	fl.DurationVar(&f.cloneTimeout, "clone-timeout", 0, "Time limit for fetching a remote repository (default 2m)")
	fl.IntVar(&f.cloneDepth, "clone-depth", 0, "History depth for remote fetches (default 1)")

	return cmd
}

func runPack(cmd *cobra.Command, a *app, f *packFlags, src string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := f.apply(cmd, &cfg); err != nil {
		return err
	}

	dest := f.output
	if dest == "" {
		dest = source.DefaultOutputPath(src, cfg.Format)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
	defer stop()

	logger := a.logger
	progress := newProgress(cmd.ErrOrStderr())
	req := pack.Request{Config: cfg, Source: src, Destination: dest}

	for ev := range pack.Start(ctx, pack.NewPacker(logger), req) {
		if !ev.Done {
			logger.Debug("Wrote file", zap.String("file", ev.Path))
			progress.Update(ev.Path)
			continue
		}
		progress.Done()
		if ev.Err != nil {
			return ev.Err
		}
		report(cmd, ev.Result)
	}
	return nil
}

func report(cmd *cobra.Command, res *pack.Result) {
	for _, s := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", s.RelPath, s.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Packed %d files from %s into %s (%d placeholders, %d skipped) in %s\n",
		res.Files, res.Name, res.Destination, res.Binary, len(res.Skipped), res.Elapsed.Round(time.Millisecond))
}

// apply overrides cfg with every flag set on the command line.
func (f *packFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("format") {
		format, err := config.ParseFormat(f.format)
		if err != nil {
			return err
		}
		cfg.Format = format
	}
	if changed("mode") {
		mode, err := config.ParseMode(f.mode)
		if err != nil {
			return err
		}
		cfg.Mode = mode
	}
	if changed("compress") {
		cfg.Compress = f.compress
	}
	if changed("no-ignore-git") {
		cfg.IgnoreGit = !f.noIgnoreGit
	}
	if changed("no-ignore-build") {
		cfg.IgnoreBuild = !f.noIgnoreBuild
	}
	if changed("no-ignore-gradle") {
		cfg.IgnoreGradle = !f.noIgnoreGradle
	}
	if changed("ignore-files") {
		cfg.IgnoreFiles = config.ParseList(f.ignoreFiles)
	}
	if changed("ignore-exts") {
		cfg.IgnoreExts = config.ParseList(f.ignoreExts)
	}
	if changed("ignore-pattern") {
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, f.ignorePatterns...)
	}
	if f.ignoreFrom != "" {
		lines, err := config.ReadPatternFile(f.ignoreFrom)
		if err != nil {
			return err
		}
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, lines...)
	}
	if changed("ignore-case") {
		cfg.IgnoreCaseInsensitive = f.ignoreCase
	}
	if changed("max-file-size") {
		cfg.MaxFileSize = f.maxFileSize
	}
	if changed("branch") {
		cfg.Clone.Branch = f.branch
	}
	if changed("clone-timeout") {
		cfg.Clone.Timeout = f.cloneTimeout
	}
	if changed("clone-depth") {
		cfg.Clone.Depth = f.cloneDepth
	}

	return cfg.Validate()
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
