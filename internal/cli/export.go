package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lockbridge/pkg/errors"
	"github.com/matzehuels/lockbridge/pkg/export"
	"github.com/matzehuels/lockbridge/pkg/lock"
	"github.com/matzehuels/lockbridge/pkg/project"
)

// allGroups selects every locked dependency group.
const allGroups = ":all:"

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	format       string
	groups       []string
	noHashes     bool
	noMarkers    bool
	noExtras     bool
	output       string
	pyproject    bool
	expandVars   bool
	self         bool
	editableSelf bool
	projectDir   string
}

// newExportCmd creates the export command: it renders the locked
// package set (or, with --pyproject, the declared requirements) in the
// requested output format.
func newExportCmd() *cobra.Command {
	opts := exportOpts{format: export.FormatRequirements}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the locked packages set to other formats",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runExport(c.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format (requirements|pylock)")
	cmd.Flags().StringArrayVarP(&opts.groups, "group", "G", nil, "dependency group to export (repeatable, "+allGroups+" for all)")
	cmd.Flags().BoolVar(&opts.noHashes, "no-hashes", false, "don't include artifact hashes")
	cmd.Flags().BoolVar(&opts.noMarkers, "no-markers", false, "(DEPRECATED) don't include platform markers")
	cmd.Flags().BoolVar(&opts.noExtras, "no-extras", false, "strip extras from the requirements")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write output to the given file instead of stdout")
	cmd.Flags().BoolVar(&opts.pyproject, "pyproject", false, "read the list of packages from pyproject.toml")
	cmd.Flags().BoolVar(&opts.expandVars, "expandvars", false, "expand environment variables in requirements")
	cmd.Flags().BoolVar(&opts.self, "self", false, "include the project itself")
	cmd.Flags().BoolVar(&opts.editableSelf, "editable-self", false, "include the project itself as an editable dependency")
	cmd.Flags().StringVarP(&opts.projectDir, "project", "C", "", "project root (default: current directory)")

	return cmd
}

func runExport(ctx context.Context, opts *exportOpts) error {
	logger := loggerFromContext(ctx)

	if opts.self && opts.editableSelf {
		return errors.New(errors.ErrCodeSelfFlags, "--self and --editable-self are mutually exclusive")
	}
	if opts.format != export.FormatRequirements && opts.format != export.FormatPylock {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown export format %q (expected requirements or pylock)", opts.format)
	}

	root := opts.projectDir
	if root == "" {
		var err error
		if root, err = os.Getwd(); err != nil {
			return err
		}
	}
	cfg, err := project.Load(root)
	if err != nil {
		return err
	}

	eopts := export.Options{
		Format:       opts.format,
		Hashes:       !opts.noHashes,
		Markers:      !opts.noMarkers,
		Extras:       !opts.noExtras,
		ExpandVars:   opts.expandVars,
		Self:         opts.self,
		EditableSelf: opts.editableSelf,
		Logger:       logger.Warnf,
	}

	var content string
	switch {
	case opts.format == export.FormatPylock:
		lf, err := lock.Read(filepath.Join(root, lock.FileName))
		if err != nil {
			return err
		}
		if content, err = export.RenderPylock(lf, cfg, eopts); err != nil {
			return err
		}

	case opts.pyproject:
		// Declared-only mode bypasses the lock file; hashes are not
		// available for unresolved requirements.
		eopts.Hashes = false
		groups := selectGroups(opts.groups, cfg.GroupNames())
		declared, err := cfg.Declared(groups)
		if err != nil {
			return err
		}
		content = export.RenderDeclared(declared, eopts)

	default:
		if opts.self || opts.editableSelf {
			logger.Warnf("--self is only supported by the pylock format, ignoring")
		}
		if opts.noMarkers {
			printWarning("The --no-markers option is on, the exported requirements can only work on the current platform")
		}
		lf, err := lock.Read(filepath.Join(root, lock.FileName))
		if err != nil {
			return err
		}
		eopts.Groups = selectGroups(opts.groups, lf.Groups)
		cands, err := export.Candidates(lf, eopts)
		if err != nil {
			return err
		}
		content = export.RenderRequirements(cands, eopts)
	}

	// Output is assembled fully in memory and written once; a failed
	// write never leaves a partial export behind.
	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(content), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", opts.output)
		}
		printSuccess("Wrote %s", opts.output)
		return nil
	}
	fmt.Print(content)
	return nil
}

// selectGroups resolves the -G flags against the known group names:
// no flags selects the default group, the :all: sentinel selects
// everything.
func selectGroups(requested, known []string) []string {
	if len(requested) == 0 {
		return []string{lock.DefaultGroup}
	}
	for _, g := range requested {
		if g == allGroups {
			return known
		}
	}
	return requested
}
