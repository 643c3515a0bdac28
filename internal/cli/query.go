package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/registry"
	"github.com/lhl/realitycheck/internal/schema"
)

var (
	searchKind    string
	searchK       int
	searchFilters []string
	relatedK      int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over claims, sources or chains",
	Long: `Embed the query and rank records by cosine similarity.

Records stored without an embedding are not searchable; fill them in
with 'realitycheck embed'.

Example:
  realitycheck search "training compute growth"
  realitycheck search "energy prices" --kind sources --limit 5
  realitycheck search "scaling" --filter domain=TECH`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// relatedCmd represents the related command
var relatedCmd = &cobra.Command{
	Use:   "related <claim-id>",
	Short: "Find claims semantically close to a claim",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			hits, err := reg.Related(ctx, args[0], relatedK, nil)
			if err != nil {
				return err
			}
			for _, h := range hits {
				stripVectors(h.Record)
			}
			return render(cmd, hits, func(w io.Writer) {
				printHits(w, hits, func(c *model.Claim) string { return c.Text })
			})
		})
	},
}

// relationshipsCmd represents the relationships command
var relationshipsCmd = &cobra.Command{
	Use:   "relationships <claim-id>",
	Short: "Show every record linked to a claim, in both directions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			rel, err := reg.Relationships(ctx, args[0])
			if err != nil {
				return err
			}
			return render(cmd, rel, func(w io.Writer) { printRelationships(w, rel) })
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd, relatedCmd, relationshipsCmd)

	searchCmd.Flags().StringVar(&searchKind, "kind", "claims", "table to search: claims, sources, chains")
	searchCmd.Flags().IntVarP(&searchK, "limit", "n", 10, "number of results")
	searchCmd.Flags().StringArrayVar(&searchFilters, "filter", nil, "exact-match filter field=value (repeatable)")

	relatedCmd.Flags().IntVarP(&relatedK, "limit", "n", 10, "number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	kind, ok := model.ParseKind(searchKind)
	if !ok || !kind.Embedded() {
		return errors.WithHint(errors.Newf("cannot search %q", searchKind), "use --kind claims, sources or chains")
	}
	filter, err := parseFilter(schema.MustFor(kind), searchFilters)
	if err != nil {
		return err
	}

	return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		switch kind {
		case model.KindSource:
			hits, err := reg.SearchSources(ctx, query, searchK, filter)
			if err != nil {
				return err
			}
			for _, h := range hits {
				stripVectors(h.Record)
			}
			return render(cmd, hits, func(w io.Writer) {
				printHits(w, hits, func(s *model.Source) string { return s.Title })
			})
		case model.KindChain:
			hits, err := reg.SearchChains(ctx, query, searchK, filter)
			if err != nil {
				return err
			}
			for _, h := range hits {
				stripVectors(h.Record)
			}
			return render(cmd, hits, func(w io.Writer) {
				printHits(w, hits, func(ch *model.Chain) string { return ch.Name })
			})
		default:
			hits, err := reg.SearchClaims(ctx, query, searchK, filter)
			if err != nil {
				return err
			}
			for _, h := range hits {
				stripVectors(h.Record)
			}
			return render(cmd, hits, func(w io.Writer) {
				printHits(w, hits, func(c *model.Claim) string { return c.Text })
			})
		}
	})
}

func printRelationships(w io.Writer, rel *registry.Relationships) {
	fmt.Fprintln(w, rel.ClaimID)
	names := make([]string, 0, len(rel.Outgoing))
	for name := range rel.Outgoing {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s -> %s\n", name, joinOr(rel.Outgoing[name], "-"))
		fmt.Fprintf(w, "  %-14s <- %s\n", name, joinOr(rel.Incoming[name], "-"))
	}
	fmt.Fprintf(w, "  %-14s    %s\n", "sources", joinOr(rel.Sources, "-"))
	fmt.Fprintf(w, "  %-14s    %s\n", "chains", joinOr(rel.Chains, "-"))
	fmt.Fprintf(w, "  %-14s    %s\n", "predictions", joinOr(rel.Predictions, "-"))
	fmt.Fprintf(w, "  %-14s    %s\n", "contradictions", joinOr(rel.Contradictions, "-"))
}
