// Package cli holds the proposaldesk command line: the HTTP server plus
// offline commands that work on local draft files.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sequenceit/proposaldesk/internal/app"
	"github.com/sequenceit/proposaldesk/internal/config"
	"github.com/sequenceit/proposaldesk/internal/utils"
	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/sequenceit/proposaldesk/pkg/draft"
	"github.com/sequenceit/proposaldesk/pkg/export"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "./config/application.yaml"

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCmd(&utils.SystemClock{}).Execute()
}

func NewRootCmd(clock utils.Clock) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "proposaldesk",
		Short:        "Business proposal editor backend",
		Long:         "Serve the proposal editor API, or compute budgets and render exports for local draft files.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Config file path (YAML)")

	cmd.AddCommand(
		serveCmd(&configPath),
		totalsCmd(),
		exportCmd(clock),
		newCmd(&configPath, clock),
	)
	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := app.NewApplication(*configPath)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}
}

func totalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals <file>",
		Short: "Print the section and grand totals of a draft file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			editor := proposal.NewEditor(cmd.Context(), doc, nil)
			return printTotals(cmd.OutOrStdout(), editor.Budget.Sections(), editor.Budget.Recompute())
		},
	}
}

func printTotals(out io.Writer, sections []budget.Section, totals budget.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Section\tRows\tIncluded\tTotal\t")
	for _, s := range sections {
		fmt.Fprintf(w, "%s\t%d\t%t\t%s\t\n", s.Category, len(s.Items), s.Counts(), export.FormatAmountCode(totals.Of(s.Category), budget.DefaultCurrency))
	}
	fmt.Fprintf(w, "grand total\t\t\t%s\t\n", export.FormatAmountCode(totals.Grand, budget.DefaultCurrency))
	return w.Flush()
}

func exportCmd(clock utils.Clock) *cobra.Command {
	var formatName, out string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Render a draft file as PDF, Excel workbook or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			file, err := export.NewService(nil, nil, clock).ExportDocument(cmd.Context(), doc, f)
			if err != nil {
				return err
			}
			if out == "" {
				out = file.Name
			}
			if err := os.WriteFile(out, file.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "pdf", "Export format: pdf, xlsx or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: proposal_<title>.<format>)")
	return cmd
}

func newCmd(configPath *string, clock utils.Clock) *cobra.Command {
	var title, outDir string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Write a blank draft file with the next free document id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			repo, closeDB, err := app.OpenRepository(cfg.Database)
			if err != nil {
				return err
			}
			defer closeDB()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			doc := draft.NewService(repo, nil, clock).NewDraft(ctx)
			doc.ProjectTitle = title

			file := draft.NewLocalFile(doc, clock.Now())
			path := filepath.Join(outDir, file.FileName())
			fh, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			defer fh.Close()
			if err := file.Write(fh); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, doc.DocumentId)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Project title")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for the draft file")
	return cmd
}

func readDocument(path string) (proposal.Document, error) {
	fh, err := os.Open(path)
	if err != nil {
		return proposal.Document{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fh.Close()
	file, err := draft.ReadLocalFile(fh)
	if err != nil {
		return proposal.Document{}, err
	}
	return file.Data, nil
}
