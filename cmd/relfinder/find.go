package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/relfinder/internal/config"
	"github.com/rohankatakam/relfinder/internal/graph"
)

var (
	findMaxDistance int
	findEnrich      bool
	findExport      bool
	findJSON        bool
)

var findCmd = &cobra.Command{
	Use:   "find <entity1> <entity2>",
	Short: "Find the relationships between two resources",
	Long: `Run every path query of at most --max-distance hops between two IRIs
and print the merged relationship graph.

Examples:
  relfinder find http://example.org/A http://example.org/B --max-distance 2
  relfinder find http://example.org/A http://example.org/B --json --export-neo4j`,
	Args: cobra.ExactArgs(2),
	RunE: runFind,
}

func init() {
	findCmd.Flags().IntVarP(&findMaxDistance, "max-distance", "d", 2, "maximum path length in hops")
	findCmd.Flags().BoolVar(&findEnrich, "enrich", true, "replace local names with rdfs:label and resolve classes")
	findCmd.Flags().BoolVar(&findExport, "export-neo4j", false, "write the graph to Neo4j")
	findCmd.Flags().BoolVar(&findJSON, "json", false, "print the graph as JSON")
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	validation := config.ValidationContextFind
	if findExport {
		validation = config.ValidationContextExport
	}
	if err := cfg.Require(validation); err != nil {
		return err
	}
	if findMaxDistance > cfg.Finder.MaxDistanceLimit {
		return fmt.Errorf("--max-distance must be at most %d (finder.max_distance_limit)", cfg.Finder.MaxDistanceLimit)
	}

	svc, err := newServices(ctx, serviceOptions{captures: true, enrich: findEnrich})
	if err != nil {
		return err
	}
	defer svc.Close()

	g, err := svc.finder.FindRelationships(ctx, args[0], args[1], findMaxDistance)
	if err != nil {
		return err
	}

	if svc.enricher != nil {
		if err := svc.enricher.Enrich(ctx, g); err != nil {
			logger.WithError(err).Warn("Enrichment failed, showing local names")
		}
	}

	if findExport {
		exporter, err := newExporter(ctx)
		if err != nil {
			return err
		}
		defer exporter.Close(ctx)

		stats, err := exporter.Export(ctx, g)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"nodes":    stats.Nodes,
			"edges":    stats.Edges,
			"batches":  stats.Batches,
			"duration": stats.Duration,
		}).Info("Exported graph to Neo4j")
	}

	if findJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*graph.RelationshipGraph
			Classes []string `json:"classes"`
		}{g, g.Classes()})
	}

	printGraph(g)
	return nil
}

func printGraph(g *graph.RelationshipGraph) {
	fmt.Printf("Nodes (%d):\n", len(g.Nodes))
	for _, n := range g.Nodes {
		marker := " "
		if n.IsEndpoint {
			marker = "*"
		}
		class := ""
		if n.Class != "" {
			class = " [" + n.Class + "]"
		}
		fmt.Printf(" %s %3d  %s%s  <%s>\n", marker, n.ID, n.Label, class, n.IRI)
	}

	fmt.Printf("\nEdges (%d):\n", len(g.Edges))
	for _, e := range g.Edges {
		from, _ := g.Node(e.SourceID)
		to, _ := g.Node(e.TargetID)
		fmt.Printf("  %s -[%s]-> %s\n", from.Label, e.Label, to.Label)
	}

	if classes := g.Classes(); len(classes) > 0 {
		fmt.Printf("\nClasses: %s\n", strings.Join(classes, ", "))
	}
}
