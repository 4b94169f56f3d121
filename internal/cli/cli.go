// Package cli runs one-shot promptpad commands against the stored
// collection. Commands dispatch through the same controller as the
// interactive front ends.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dpshade/promptpad/internal/controller"
	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/storage"
)

// CLI provides headless command-line interface functionality
type CLI struct {
	ctl   *controller.Controller
	store *storage.Storage
	out   io.Writer
	in    io.Reader
}

// NewCLI creates a new CLI instance. A nil out writes to color.Output.
func NewCLI(ctl *controller.Controller, store *storage.Storage, out io.Writer) *CLI {
	if out == nil {
		out = color.Output
	}
	return &CLI{ctl: ctl, store: store, out: out}
}

// SetInput sets where "-" file arguments read from
func (c *CLI) SetInput(r io.Reader) {
	c.in = r
}

// Command builds the command tree
func (c *CLI) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "promptpad",
		Short:         "Keep a collection of prompts and send them to an AI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.out)

	c.addList(cmd)
	c.addSearch(cmd)
	c.addShow(cmd)
	c.addCreate(cmd)
	c.addEdit(cmd)
	c.addDelete(cmd)
	c.addCopy(cmd)
	c.addSend(cmd)
	c.addExport(cmd)
	c.addImport(cmd)
	return cmd
}

// ExecuteCommand runs the command named by args
func (c *CLI) ExecuteCommand(ctx context.Context, args []string) error {
	cmd := c.Command()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.InvalidInputError(err.Error())
	}
	return nil
}

// OutputOptions selects machine-readable output
type OutputOptions struct {
	JSON bool
}

func addOutputArg(cmd *cobra.Command, oo *OutputOptions) {
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output as JSON.")
}

func (c *CLI) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *CLI) success(format string, args ...interface{}) {
	green := color.New(color.FgGreen)
	_, _ = green.Fprintf(c.out, format+"\n", args...)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, apperrors.InvalidInputError(fmt.Sprintf("Invalid prompt id %q", arg))
	}
	return id, nil
}

func notFound(id int64) error {
	return apperrors.NotFoundError(fmt.Sprintf("prompt %d", id)).WithContext("id", id)
}
