// Package main provides the graphdb CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aetherall/neograph-sub001/pkg/config"
	"github.com/Aetherall/neograph-sub001/pkg/engine"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphdb",
		Short: "graphdb - an embeddable graph database with live, scrollable reactive views",
		Long: `graphdb is an in-process, embeddable graph database.

Features:
  • Typed nodes and bidirectional, optionally sorted edges
  • Derived rollups (count/traverse/first/last) kept current on every mutation
  • Index-backed queries — no in-memory sort
  • Reactive views: scrollable viewports over a live query, with enter/leave
    callbacks driven by a change tracker instead of polling`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("graphdb v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newViewCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSchemaCmd() *cobra.Command {
	schemaCmd := &cobra.Command{Use: "schema", Short: "Schema operations"}

	validateCmd := &cobra.Command{
		Use:   "validate <schema.json>",
		Short: "Validate a schema file against every load-time invariant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("schema ok: %d type(s)\n", len(sch.Types()))
			for _, t := range sch.Types() {
				fmt.Printf("  - %s (%d properties, %d edges, %d rollups, %d indexes)\n",
					t.Name, len(t.Properties), len(t.Edges), len(t.Rollups), len(t.Indexes))
			}
			return nil
		},
	}
	schemaCmd.AddCommand(validateCmd)
	return schemaCmd
}

func newQueryCmd() *cobra.Command {
	queryCmd := &cobra.Command{Use: "query", Short: "Query operations"}

	runCmd := &cobra.Command{
		Use:   "run <query.json>",
		Short: "Validate a query against a schema and run it once against a fresh, empty store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaPath, err := cmd.Flags().GetString("schema")
			if err != nil {
				return err
			}
			sch, err := loadSchema(schemaPath)
			if err != nil {
				return err
			}
			q, err := loadQuery(args[0])
			if err != nil {
				return err
			}

			eng, err := engine.New(sch, engine.DefaultOptions())
			if err != nil {
				return err
			}
			v, err := eng.View(q, 0)
			if err != nil {
				return fmt.Errorf("query rejected: %w", err)
			}
			if err := v.Activate(true); err != nil {
				return fmt.Errorf("activating view: %w", err)
			}
			fmt.Printf("query ok: %d row(s) against a fresh, empty store\n", v.Total())
			return nil
		},
	}
	runCmd.Flags().String("schema", "", "Path to the schema file")
	mustMarkRequired(runCmd, "schema")
	queryCmd.AddCommand(runCmd)
	return queryCmd
}

func newViewCmd() *cobra.Command {
	viewCmd := &cobra.Command{Use: "view", Short: "Reactive view operations"}

	dumpCmd := &cobra.Command{
		Use:   "dump <query.json>",
		Short: "Activate a view over a fresh, empty store and dump its initial rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaPath, err := cmd.Flags().GetString("schema")
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			sch, err := loadSchema(schemaPath)
			if err != nil {
				return err
			}
			q, err := loadQuery(args[0])
			if err != nil {
				return err
			}

			cfg := config.LoadFromEnv()
			if err := cfg.Validate(); err != nil {
				return err
			}
			eng, err := engine.New(sch, cfg.EngineOptions())
			if err != nil {
				return err
			}

			v, err := eng.View(q, limit)
			if err != nil {
				return fmt.Errorf("view rejected: %w", err)
			}
			if err := v.Activate(true); err != nil {
				return fmt.Errorf("activating view: %w", err)
			}

			rows := make([]map[string]any, 0, len(v.Items()))
			for _, it := range v.Items() {
				rows = append(rows, toDisplay(it))
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}
	dumpCmd.Flags().String("schema", "", "Path to the schema file")
	mustMarkRequired(dumpCmd, "schema")
	dumpCmd.Flags().Int("limit", 100, "Viewport limit")
	viewCmd.AddCommand(dumpCmd)
	return viewCmd
}

func mustMarkRequired(cmd *cobra.Command, flag string) {
	if err := cmd.MarkFlagRequired(flag); err != nil {
		panic(err)
	}
}
