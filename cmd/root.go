package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sourcepack/pkg/logging"
	"sourcepack/pkg/packerr"
)

// app carries the persistent flags and the logger built from them.
type app struct {
	debug      bool
	verbose    bool
	configPath string
	logger     *zap.Logger
}

// NewRootCmd builds the command tree. The logger is created once flags are
// parsed and can be fetched from the returned function for syncing on exit.
func NewRootCmd() (*cobra.Command, func() *zap.Logger) {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "sourcepack",
		Short: "Pack a source tree into a single Markdown or XML document",
		Long: `SourcePack reads a local directory or a remote git repository and writes
every included file into one Markdown or XML document, ready to paste into an
LLM prompt or attach to a code review.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.debug, a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable development logging at debug level")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log progress information")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")

	root.AddCommand(newPackCmd(a), newVersionCmd())
	return root, func() *zap.Logger { return a.logger }
}

// Execute runs the CLI with the process arguments and returns the logger in use.
func Execute() (*zap.Logger, error) {
	root, logger := NewRootCmd()
	err := root.Execute()
	return logger(), err
}

// FormatError renders err as "KIND: message" for packing failures.
func FormatError(err error) string {
	var pe *packerr.Error
	if !errors.As(err, &pe) {
		return "error: " + err.Error()
	}
	msg := err.Error()
	if err == error(pe) {
		msg = strings.TrimPrefix(msg, "["+string(pe.Kind)+"] ")
	}
	return fmt.Sprintf("%s: %s", pe.Kind, msg)
}
