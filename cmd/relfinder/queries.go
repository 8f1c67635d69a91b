package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/relfinder/internal/config"
	"github.com/rohankatakam/relfinder/internal/finder"
	"github.com/rohankatakam/relfinder/internal/sparql"
)

var queriesMaxDistance int

var queriesCmd = &cobra.Command{
	Use:   "queries <entity1> <entity2>",
	Short: "Print the queries a find would run",
	Long: `Generate the SPARQL queries for two resources without contacting the
endpoint. Useful for debugging ignore lists and cycle strategies.`,
	Args: cobra.ExactArgs(2),
	RunE: runQueries,
}

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List the instances of the allowed entity classes",
	Args:  cobra.NoArgs,
	RunE:  runEntities,
}

func init() {
	queriesCmd.Flags().IntVarP(&queriesMaxDistance, "max-distance", "d", 2, "maximum path length in hops")
}

func runQueries(cmd *cobra.Command, args []string) error {
	allow, err := config.LoadAllowLists(cfg.AllowListFile)
	if err != nil {
		return err
	}

	// queries are only generated, so the finder never calls its executor
	f, err := finder.New(nil, finderSettings(allow))
	if err != nil {
		return err
	}

	descriptors, err := f.Queries(args[0], args[1], queriesMaxDistance)
	if err != nil {
		return err
	}

	for _, d := range descriptors {
		fmt.Printf("# %d: %s, distance %d (%s -> %s)\n", d.Index, d.Kind, d.Distance,
			sparql.LocalName(d.Source), sparql.LocalName(d.Destination))
		fmt.Println(d.Query)
		fmt.Println()
	}
	logger.WithField("count", len(descriptors)).Debug("Generated queries")
	return nil
}

func runEntities(cmd *cobra.Command, args []string) error {
	if err := cfg.Require(config.ValidationContextFind); err != nil {
		return err
	}

	svc, err := newServices(cmd.Context(), serviceOptions{})
	if err != nil {
		return err
	}
	defer svc.Close()

	entities, err := svc.endpoint.Entities(cmd.Context(), svc.allow.EntityClasses)
	if err != nil {
		return err
	}

	for _, e := range entities {
		fmt.Printf("%-40s %-20s %s\n", e.Label, sparql.LocalName(e.Class), e.IRI)
	}
	fmt.Printf("\n%d entities\n", len(entities))
	return nil
}
