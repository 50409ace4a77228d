package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depwrangler/pkg/document"
	"github.com/matzehuels/depwrangler/pkg/errors"
	"github.com/matzehuels/depwrangler/pkg/pipeline"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a graph document and the filter configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	addPolicyFlags(cmd, &opts)
	return cmd
}

func (c *CLI) runValidate(ctx context.Context, w io.Writer, path string, opts pipeline.Options) error {
	doc, err := document.Load(path)
	if err != nil {
		printError(w, "%s: %s", path, errors.UserMessage(err))
		return err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		printError(w, "%s", errors.UserMessage(err))
		return err
	}
	if _, err := c.newRunner(true).Wrangler(doc, opts); err != nil {
		printError(w, "%s", errors.UserMessage(err))
		return err
	}
	root, err := doc.RootObject(opts.Root)
	if err != nil {
		printError(w, "%s", errors.UserMessage(err))
		return err
	}

	loggerFromContext(ctx).Debug("validated document", "path", path, "root", root.ID)
	printSuccess(w, "%s is valid", path)
	printStats(w, stat{len(doc.Objects), "objects"})
	printInfo(w, "root %s", root.ID)
	return nil
}
