package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traitlint/internal/hir"
	"traitlint/internal/source"
)

type dumpOptions struct {
	format  string
	output  string
	inline  bool
	baseDir string
}

func newDumpCmd() *cobra.Command {
	opts := &dumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump [flags] <dump>",
		Short: "Re-encode a HIR dump",
		Long:  "Decode a HIR dump and write it back as JSON or msgpack, optionally embedding the referenced sources.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "", "output format (json|msgpack); default: by -o extension, json on stdout")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.inline, "inline", false, "embed source contents so the dump is self-contained")
	cmd.Flags().StringVar(&opts.baseDir, "base-dir", "", "directory relative source paths are resolved against")
	return cmd
}

func (o *dumpOptions) resolveFormat() (hir.Format, error) {
	switch {
	case o.format != "":
		return hir.ParseFormat(o.format)
	case o.output != "":
		return hir.FormatForPath(o.output), nil
	}
	return hir.FormatJSON, nil
}

func runDump(cmd *cobra.Command, opts *dumpOptions, path string) error {
	format, err := opts.resolveFormat()
	if err != nil {
		return err
	}
	unit, _, err := hir.ReadFile(path)
	if err != nil {
		return err
	}
	if opts.inline {
		baseDir := opts.baseDir
		if baseDir == "" {
			baseDir = filepath.Dir(path)
		}
		files, err := unit.FileSet(baseDir)
		if err != nil {
			return err
		}
		inlineSources(unit, files)
	}

	if opts.output == "" {
		return hir.Encode(cmd.OutOrStdout(), unit, format)
	}
	f, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	if err := hir.Encode(f, unit, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", opts.output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("dump written",
		zap.String("path", opts.output),
		zap.Stringer("format", format),
		zap.Int("files", len(unit.Files)))
	return nil
}

// inlineSources copies the normalized file contents into the unit's entries.
// FileIDs follow the order of Files, so entry i is file i.
func inlineSources(unit *hir.Unit, files *source.FileSet) {
	for i := range unit.Files {
		f := files.Get(source.FileID(i)) // #nosec G115 -- len(Files) fits FileID
		if f == nil {
			continue
		}
		unit.Files[i].Content = string(f.Content)
	}
}
