package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/registry"
)

var (
	validateStrict      bool
	validateJSON        bool
	validateReferential bool
	resetYes            bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and its tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Registry ready: %s\n", reg.Path())
			return nil
		})
	},
}

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every record and the links between them",
	Long: `Validate runs the batch integrity pass: schema checks on every record,
logical checks (a chain's credence above its weakest claim, a resolved
prediction without a resolution date, ...) and referential checks (claims
citing missing sources, back-references out of sync, ...).

Exit codes:
  0  passed
  4  failed (errors present, or warnings with --strict)`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts and missing embeddings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			st, err := reg.Stats(ctx)
			if err != nil {
				return err
			}
			return render(cmd, st, func(w io.Writer) { printStats(w, reg.Path(), st) })
		})
	},
}

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <table>",
	Short: "Delete every record of one table",
	Long: `Reset empties one table (claims, sources, chains, predictions,
contradictions or definitions) and restarts its insertion order. It refuses to run without --yes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := model.ParseKind(args[0])
		if !ok {
			return errors.WithHint(errors.Wrapf(errors.ErrUnknownTable, "%q", args[0]),
				"use one of: claims, sources, chains, predictions, contradictions, definitions")
		}
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			if err := reg.Reset(ctx, kind, resetYes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Reset %s\n", kind)
			return nil
		})
	},
}

// repairCmd represents the repair command
var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Rebuild source back-references from the claims citing them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			changed, err := reg.Reconcile(ctx)
			if err != nil {
				return err
			}
			return render(cmd, map[string][]string{"changed": changed}, func(w io.Writer) {
				for _, id := range changed {
					fmt.Fprintf(w, "updated %s\n", id)
				}
				fmt.Fprintf(w, "✓ %d sources updated\n", len(changed))
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd, validateCmd, statsCmd, resetCmd, repairCmd)

	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat warnings as errors")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "shorthand for --format json")
	validateCmd.Flags().BoolVar(&validateReferential, "referential", false, "only run cross-record checks")

	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm deleting every record in the table")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateJSON {
		viper.Set("output.format", FormatJSON)
		defer viper.Set("output.format", nil)
	}

	return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		var report model.Report
		if validateReferential {
			issues, err := reg.ValidateReferential(ctx)
			if err != nil {
				return err
			}
			st, err := reg.Stats(ctx)
			if err != nil {
				return err
			}
			report = model.NewReport(issues, st.Counts, validateStrict)
		} else {
			var err error
			if report, err = reg.Validate(ctx, validateStrict); err != nil {
				return err
			}
		}

		if err := render(cmd, report, func(w io.Writer) { printReport(w, report) }); err != nil {
			return err
		}
		if !report.OK {
			return errors.Wrapf(errors.ErrReferential, "%d errors, %d warnings", report.ErrorCount, report.WarningCount)
		}
		return nil
	})
}

func printStats(w io.Writer, path string, st model.Stats) {
	fmt.Fprintf(w, "Database:       %s\n", path)
	fmt.Fprintf(w, "Sources:        %d (%d without embedding)\n", st.Counts.Sources, st.SourcesMissingEmbed)
	fmt.Fprintf(w, "Claims:         %d (%d without embedding)\n", st.Counts.Claims, st.ClaimsMissingEmbed)
	fmt.Fprintf(w, "Chains:         %d (%d without embedding)\n", st.Counts.Chains, st.ChainsMissingEmbed)
	fmt.Fprintf(w, "Predictions:    %d\n", st.Counts.Predictions)
	fmt.Fprintf(w, "Contradictions: %d\n", st.Counts.Contradictions)
	fmt.Fprintf(w, "Definitions:    %d\n", st.Counts.Definitions)
}
