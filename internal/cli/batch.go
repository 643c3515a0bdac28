package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/registry"
)

var (
	exportOut    string
	embedKind    string
	embedAll     bool
	batchTimeout time.Duration
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add every record of a YAML bundle",
	Long: `Import reads a YAML bundle with sources, claims, chains and predictions
lists and adds them in that order, so claims can resolve their sources.

Each record goes through the normal add path: it is validated, gets an ID
when it has none, and is embedded. A failed record is reported and does
not stop the import; the command exits with code 2 if any record failed.

Example:
  realitycheck import analysis.yaml
  cat bundle.yaml | realitycheck import -`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every record as a YAML bundle",
	Long: `Export writes the whole registry as a bundle that 'realitycheck import'
accepts. Embeddings are not exported.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// embedCmd represents the embed command
var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Compute embeddings for stored records",
	Long: `Embed fills in embeddings that were deferred (stored with --no-embed or
while the provider was unavailable). With --all every record is
re-embedded, e.g. after switching embedding model.

Requests run concurrently (embedding.workers) and are rate limited
(embedding.requests_per_sec).

Example:
  realitycheck embed
  realitycheck embed --kind sources --all`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(importCmd, exportCmd, embedCmd)

	exportCmd.Flags().StringVar(&exportOut, "out", "-", "output file ('-' for stdout)")

	embedCmd.Flags().StringVar(&embedKind, "kind", "", "only this table: claims, sources, chains (default: all)")
	embedCmd.Flags().BoolVar(&embedAll, "all", false, "re-embed records that already have an embedding")
	embedCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
}

func runImport(cmd *cobra.Command, args []string) error {
	var b model.Bundle
	var err error
	if args[0] == "-" {
		b, err = registry.DecodeBundle(cmd.InOrStdin())
	} else {
		b, err = registry.LoadBundle(args[0])
	}
	if err != nil {
		return err
	}

	return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		outcomes := reg.Import(ctx, b)
		ok, failed := registry.Outcomes(outcomes)
		if err := render(cmd, outcomes, func(w io.Writer) {
			printOutcomes(w, outcomes)
			fmt.Fprintf(w, "\nImported %d records, %d failed\n", ok, failed)
		}); err != nil {
			return err
		}
		if failed > 0 {
			return errors.WithStack(&errors.ValidationError{Kind: "bundle", ID: args[0], Issues: importIssues(outcomes)})
		}
		return nil
	})
}

// importIssues turns failed outcomes into issues for the exit status
func importIssues(outcomes []model.Outcome) []model.Issue {
	var issues []model.Issue
	for _, o := range outcomes {
		if !o.OK {
			issues = append(issues, model.Issue{
				Severity: model.SeverityError,
				Code:     "IMPORT_FAILED",
				Message:  o.Error,
				Kind:     o.Kind,
				RecordID: o.ID,
			})
		}
	}
	return issues
}

func runExport(cmd *cobra.Command, args []string) error {
	return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) (err error) {
		b, err := reg.Export(ctx)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if exportOut != "-" {
			f, createErr := os.Create(exportOut)
			if createErr != nil {
				return errors.Wrapf(createErr, "create %s", exportOut)
			}
			defer func() {
				if closeErr := f.Close(); closeErr != nil && err == nil {
					err = errors.Wrapf(closeErr, "close %s", exportOut)
				}
			}()
			w = f
		}

		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return errors.Wrap(err, "encode bundle")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "encode bundle")
		}
		if exportOut != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", b.Len(), exportOut)
		}
		return nil
	})
}

func runEmbed(cmd *cobra.Command, args []string) error {
	kinds := []model.Kind{model.KindClaim, model.KindSource, model.KindChain}
	if embedKind != "" {
		kind, ok := model.ParseKind(embedKind)
		if !ok || !kind.Embedded() {
			return errors.WithHint(errors.Newf("cannot embed %q", embedKind), "use --kind claims, sources or chains")
		}
		kinds = []model.Kind{kind}
	}

	return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		ctx, cancel := context.WithTimeout(ctx, batchTimeout)
		defer cancel()

		var all []model.Outcome
		for _, kind := range kinds {
			outcomes, err := reg.Reembed(ctx, kind, !embedAll)
			if err != nil {
				return err
			}
			all = append(all, outcomes...)
		}
		if all == nil {
			all = []model.Outcome{}
		}

		ok, failed := registry.Outcomes(all)
		if err := render(cmd, all, func(w io.Writer) {
			printOutcomes(w, all)
			fmt.Fprintf(w, "\nEmbedded %d records, %d failed\n", ok, failed)
		}); err != nil {
			return err
		}
		if failed > 0 {
			return errors.Newf("%d records could not be embedded", failed)
		}
		return nil
	})
}
