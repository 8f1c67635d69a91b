package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/relfinder/internal/capture"
)

var capturesLimit int

var capturesCmd = &cobra.Command{
	Use:   "captures",
	Short: "Inspect recorded requests",
	Long: `List and show requests recorded in the capture store (capture.path).
Each capture holds the generated queries, the raw bindings the endpoint
returned, and the resulting graph.`,
}

var capturesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded requests, newest first",
	Args:  cobra.NoArgs,
	RunE:  runCapturesList,
}

var capturesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one recorded request as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runCapturesShow,
}

func init() {
	capturesListCmd.Flags().IntVarP(&capturesLimit, "limit", "n", 20, "maximum number of captures")
	capturesCmd.AddCommand(capturesListCmd)
	capturesCmd.AddCommand(capturesShowCmd)
}

func openCaptures() (*capture.Store, error) {
	if cfg.Capture.Path == "" {
		return nil, fmt.Errorf("capture store is disabled (set capture.path or CAPTURE_PATH)")
	}
	return capture.Open(cfg.Capture.Path)
}

func runCapturesList(cmd *cobra.Command, args []string) error {
	store, err := openCaptures()
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(capturesLimit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No captures recorded")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("%s  %s  d=%d  queries=%d nodes=%d edges=%d\n  %s\n  %s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.MaxDistance,
			s.Queries, s.Nodes, s.Edges, s.Source, s.Destination)
	}
	return nil
}

func runCapturesShow(cmd *cobra.Command, args []string) error {
	store, err := openCaptures()
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := store.Get(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
