package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpshade/promptpad/internal/clipboard"
	"github.com/dpshade/promptpad/internal/controller"
	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/models"
	"github.com/dpshade/promptpad/internal/renderer"
	"github.com/dpshade/promptpad/internal/storage"
)

func (c *CLI) addList(topLevel *cobra.Command) {
	oo := &OutputOptions{}
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored prompts, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := c.ctl.Snapshot()
			if oo.JSON {
				return c.printJSON(state.Prompts)
			}
			c.printTable(state.Prompts, state.SelectedID)
			return nil
		},
	}
	addOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func (c *CLI) addSearch(topLevel *cobra.Command) {
	oo := &OutputOptions{}
	var fuzzyMatch bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find prompts whose title or content contains the query",
		Example: `
promptpad search review
promptpad search --fuzzy cdrv
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			var records []models.PromptRecord
			if fuzzyMatch {
				records = c.ctl.FuzzySearch(query)
			} else {
				records = c.ctl.Dispatch(controller.Search{Query: query}).View.Records
			}

			if oo.JSON {
				return c.printJSON(records)
			}
			c.printTable(records, c.ctl.Snapshot().SelectedID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fuzzyMatch, "fuzzy", false, "Rank by fuzzy match instead of substring.")
	addOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func (c *CLI) addShow(topLevel *cobra.Command) {
	oo := &OutputOptions{}
	var raw bool
	cmd := &cobra.Command{
		Use:     "show <id>",
		Aliases: []string{"get"},
		Short:   "Show one prompt and its stored response",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.find(args[0])
			if err != nil {
				return err
			}
			if oo.JSON {
				return c.printJSON(p)
			}
			c.printRecord(p, raw)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the response Markdown without rendering it.")
	addOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func (c *CLI) addCreate(topLevel *cobra.Command) {
	var title, content, contentFile string
	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"new"},
		Short:   "Store a new prompt",
		Example: `
promptpad create --title "Code review" --content "Review this diff for bugs."
cat prompt.md | promptpad create --title "From stdin" --content-file -
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if contentFile != "" {
				text, err := c.readFile(contentFile)
				if err != nil {
					return err
				}
				content = text
			}

			c.ctl.Dispatch(controller.New{})
			res := c.ctl.Dispatch(controller.Save{Title: title, Content: content})
			if res.Err != nil {
				return res.Err
			}
			c.success("Created prompt %d", *res.View.SelectedID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Prompt title.")
	cmd.Flags().StringVar(&content, "content", "", "Prompt content.")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "Read the content from a file, or - for stdin.")
	topLevel.AddCommand(cmd)
}

func (c *CLI) addEdit(topLevel *cobra.Command) {
	var title, content string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or content of a stored prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.find(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				p.Title = title
			}
			if cmd.Flags().Changed("content") {
				p.Content = content
			}

			c.ctl.Dispatch(controller.Select{ID: p.ID})
			res := c.ctl.Dispatch(controller.Save{Title: p.Title, Content: p.Content})
			if res.Err != nil {
				return res.Err
			}
			c.success("Updated prompt %d", p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title.")
	cmd.Flags().StringVar(&content, "content", "", "New content.")
	topLevel.AddCommand(cmd)
}

func (c *CLI) addDelete(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a stored prompt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.find(args[0])
			if err != nil {
				return err
			}
			c.ctl.Dispatch(controller.Remove{ID: p.ID})
			c.success("Deleted prompt %d", p.ID)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func (c *CLI) addCopy(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a prompt's text to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.find(args[0])
			if err != nil {
				return err
			}
			res := c.ctl.Dispatch(controller.Copy{Content: p.Content})
			if res.Err != nil {
				if apperrors.Is(res.Err, apperrors.ErrCodeClipboardFailure) {
					return apperrors.Wrap(res.Err, apperrors.ErrCodeClipboardFailure,
						controller.MsgCopyFailed+"\n"+clipboard.GetInstallInstructions())
				}
				return res.Err
			}
			c.success("Copied to clipboard!")
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func (c *CLI) addSend(topLevel *cobra.Command) {
	var raw bool
	cmd := &cobra.Command{
		Use:   "send <id>",
		Short: "Send a prompt to the relay and store the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.find(args[0])
			if err != nil {
				return err
			}
			c.ctl.Dispatch(controller.Select{ID: p.ID})
			res := c.ctl.RequestCompletion(cmd.Context(), p.Content)
			if res.Err != nil {
				return res.Err
			}
			c.printResponse(res.View.CompletionRaw, raw)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the response Markdown without rendering it.")
	topLevel.AddCommand(cmd)
}

func (c *CLI) addExport(topLevel *cobra.Command) {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole collection as JSON or YAML",
		Example: `
promptpad export > backup.json
promptpad export --format yaml --output backup.yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != storage.FormatJSON && format != storage.FormatYAML {
				return apperrors.InvalidInputError(fmt.Sprintf("Unsupported format %q, use json or yaml", format))
			}

			w := c.out
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return apperrors.StorageError("create export file", err)
				}
				defer f.Close()
				w = f
			}

			if err := c.store.Export(w, format); err != nil {
				return err
			}
			if w != c.out {
				c.success("Exported %d prompts to %s", len(c.store.Load().Prompts), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", storage.FormatJSON, "Output format: json or yaml.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout.")
	topLevel.AddCommand(cmd)
}

func (c *CLI) addImport(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge prompts from a JSON or YAML export",
		Long:  "Merge prompts from a JSON or YAML export. Prompts whose id is already stored are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := c.open(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			_, added, err := c.store.Import(r)
			if err != nil {
				return err
			}
			c.success("Imported %d prompts", added)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func (c *CLI) find(arg string) (models.PromptRecord, error) {
	id, err := parseID(arg)
	if err != nil {
		return models.PromptRecord{}, err
	}
	p, ok := c.ctl.Find(id)
	if !ok {
		return models.PromptRecord{}, notFound(id)
	}
	return p, nil
}

func (c *CLI) open(path string) (io.Reader, func(), error) {
	if path == "-" {
		if c.in == nil {
			return os.Stdin, func() {}, nil
		}
		return c.in, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, fmt.Sprintf("Cannot open %s", path))
	}
	return f, func() { f.Close() }, nil
}

func (c *CLI) readFile(path string) (string, error) {
	r, closeFn, err := c.open(path)
	if err != nil {
		return "", err
	}
	defer closeFn()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, fmt.Sprintf("Cannot read %s", path))
	}
	return string(data), nil
}

func (c *CLI) printResponse(raw string, plain bool) {
	if plain {
		fmt.Fprintln(c.out, raw)
		return
	}
	fmt.Fprint(c.out, renderer.RenderCompletionTerminal(raw, 80))
}
