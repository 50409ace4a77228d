package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depwrangler/pkg/document"
	"github.com/matzehuels/depwrangler/pkg/pipeline"
)

// analyseOpts holds the command-line flags for the analyse command.
type analyseOpts struct {
	output      string // output file; stdout when empty
	noCache     bool   // skip the artifact cache
	interactive bool   // pick the root from a list when --root is empty
	pipeline.Options
}

// analyseCommand creates the analyse command.
func (c *CLI) analyseCommand() *cobra.Command {
	var opts analyseOpts

	cmd := &cobra.Command{
		Use:   "analyse [file]",
		Short: "Analyse a graph document from its root",
		Long: `Analyse walks the document from --root (or the document's root) and
builds the proxy graph, splicing --bypass types out of dependency lists or
keeping only --require types available.

Output formats: summary (default), json, dot, svg.`,
		Aliases: []string{"analyze"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyse(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	addPolicyFlags(cmd, &opts.Options)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the rendered artifact cache")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "choose the root object from a list when --root is not set")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", pipeline.DefaultFormat, "output format: summary, json, dot, svg")
	cmd.Flags().BoolVar(&opts.IncludeBypassed, "include-bypassed", false, "keep bypassed items in exported graphs")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show types and metadata in dot/svg labels")
	cmd.Flags().BoolVar(&opts.ShowDownstream, "downstream-edges", false, "draw downstream edges in dot/svg output")

	return cmd
}

// addPolicyFlags registers the flags that configure the wrangler.
func addPolicyFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVarP(&opts.Root, "root", "r", "", "ID of the object to analyse from")
	cmd.Flags().StringSliceVarP(&opts.Bypass, "bypass", "b", nil, "types to splice out of dependency lists (comma-separated)")
	cmd.Flags().StringSliceVar(&opts.Require, "require", nil, "types to keep available; all others are bypassed (comma-separated)")
	cmd.Flags().BoolVar(&opts.SymmetricDownstream, "symmetric-downstream", false, "splice a bypassed item's downstream list into downstream lists")
	cmd.MarkFlagsMutuallyExclusive("bypass", "require")
}

func (c *CLI) runAnalyse(ctx context.Context, in io.Reader, w io.Writer, path string, opts analyseOpts) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	doc, err := document.Load(path)
	if err != nil {
		return err
	}
	logger.Debug("loaded document", "path", path, "objects", len(doc.Objects))

	if opts.interactive && opts.Root == "" {
		// The list is drawn on stderr so stdout stays clean for artifacts.
		root, err := pickRoot(ctx, doc, in, os.Stderr)
		if err != nil {
			return err
		}
		if root == "" {
			printDetail(w, "No root selected")
			return nil
		}
		opts.Root = root
	}

	result, err := c.newRunner(opts.noCache).Execute(ctx, doc, opts.Options)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analysed %d objects", result.Session.Len()))

	if opts.Format == pipeline.FormatSummary {
		printSummary(w, result)
		return nil
	}

	if opts.output == "" {
		_, err := w.Write(result.Artifact)
		return err
	}
	if err := os.WriteFile(opts.output, result.Artifact, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	if result.Cached {
		printSuccess(w, "Wrote %s (cached)", opts.Format)
	} else {
		printSuccess(w, "Wrote %s", opts.Format)
	}
	printFile(w, opts.output)
	return nil
}

// printSummary prints the session's items and their upstream lists.
func printSummary(w io.Writer, result *pipeline.Result) {
	s := result.Session
	fmt.Fprintln(w, StyleTitle.Render("Session "+s.ID()))
	printKeyValue(w, "root", fmt.Sprint(s.Root().ID()))
	printStats(w,
		stat{s.Len(), "items"},
		stat{len(s.AvailableObjects()), "available"},
		stat{s.Len() - len(s.AvailableObjects()), "bypassed"},
		stat{len(result.Cycles), "cycles"},
	)
	fmt.Fprintln(w)

	items := s.Items()
	for _, id := range s.AnalysedObjects() {
		it := items[id]
		up := it.UpstreamIDs()
		names := make([]string, len(up))
		for i, u := range up {
			names[i] = fmt.Sprint(u)
		}
		printDependency(w, fmt.Sprint(id), it.Bypassed(), names)
	}

	if len(result.Cycles) > 0 {
		fmt.Fprintln(w)
		for _, e := range result.Cycles {
			printWarning(w, "cycle closes at %s %s %s", e.From, iconArrow, e.To)
		}
	}
}
