package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/jsconform/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// FS is the filesystem scripts, manifests and golden files are read
	// from. Defaults to the OS filesystem.
	FS afero.Fs
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the jsconform CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{FS: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "jsconform",
		Short: "jsconform - ECMAScript conformance runner",
		Long: `Run ECMAScript conformance scripts against an embedded engine.

Scripts use a small assertion library (assertEquals, assertThrows, load)
and must end with the completion value "success". The first failed
assertion stops the script.`,
		Version:       ir.ToolVersion,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// fs returns the configured filesystem, falling back to the OS.
func (o *RootOptions) fs() afero.Fs {
	if o.FS == nil {
		return afero.NewOsFs()
	}
	return o.FS
}
