package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"annlab/internal/config"
	"annlab/internal/model"
	annlab "annlab/pkg/annlab"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		configPath string
		gens       int
		seed       int64
		runID      string
		csvPath    string
		quiet      bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an evolution and record it in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.client(cmd, "")
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			started := time.Now()
			summary, err := client.Run(cmd.Context(), annlab.RunRequest{
				ConfigPath:  configPath,
				Generations: gens,
				Seed:        seed,
				RunID:       runID,
				SummaryCSV:  csvPath,
				OnGeneration: func(s model.GenerationSummary) error {
					if quiet {
						return nil
					}
					_, err := fmt.Fprintf(out, "gen %-5d best=%.6f mean=%.6f worst=%.6f mutations=%s elapsed=%dms\n",
						s.GenerationIndex, s.BestScore, s.MeanScore, s.WorstScore,
						humanize.Comma(int64(s.TotalMutationCount)), s.ElapsedMillis)
					return err
				},
			})
			if summary.RunID != "" {
				fmt.Fprintf(out, "run_id=%s seed=%d generations=%d best=%.6f outputs=%v mutations=%s took=%s\n",
					summary.RunID, summary.Seed, summary.Generations, summary.FinalBestScore, summary.BestOutputs,
					humanize.Comma(int64(summary.Mutations)), time.Since(started).Round(time.Millisecond))
			}
			if err != nil && cmd.Context().Err() != nil {
				return fmt.Errorf("run interrupted after %d generations: %w", summary.Generations, err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "run configuration (.yaml, .json or .ini); defaults to the built-in lab")
	cmd.Flags().IntVar(&gens, "gens", 0, "generations to run, overriding the configuration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed, overriding the configuration")
	cmd.Flags().StringVar(&runID, "run-id", "", "explicit run id")
	cmd.Flags().StringVar(&csvPath, "out", "", "write one CSV row per generation to this file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print the final line")
	return cmd
}

func newRunsCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.client(cmd, "")
			if err != nil {
				return err
			}
			defer client.Close()

			items, err := client.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tCREATED\tSEED\tAGENTS\tGENERATIONS\tBEST")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%.6f\n",
					item.RunID, createdAgo(item.CreatedAtUTC), item.Seed,
					humanize.Comma(int64(item.AgentCount)), humanize.Comma(int64(item.Generations)), item.FinalBestScore)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list; 0 lists all")
	return cmd
}

func createdAgo(created string) string {
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return created
	}
	return humanize.Time(t)
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		runID  string
		latest bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a run's metadata, summaries and replayable config to a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.client(cmd, outDir)
			if err != nil {
				return err
			}
			defer client.Close()

			exported, err := client.Export(cmd.Context(), annlab.ExportRequest{RunID: runID, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run to export")
	cmd.Flags().BoolVar(&latest, "latest", false, "export the newest run")
	cmd.Flags().StringVar(&outDir, "out", "exports", "export directory")
	cmd.MarkFlagsMutuallyExclusive("run-id", "latest")
	cmd.MarkFlagsOneRequired("run-id", "latest")
	return cmd
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List strategy slots and their variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := annlab.New(annlab.Options{StoreKind: "memory"})
			if err != nil {
				return err
			}
			defer client.Close()

			families, err := client.Strategies()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLOT\tVARIANT\tDISPLAY NAME\tDEFAULT")
			for _, f := range families {
				for _, v := range f.Variants {
					def := ""
					if v.Default {
						def = "*"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Slot, v.Name, v.DisplayName, def)
				}
			}
			return w.Flush()
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect run configurations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "defaults",
			Short: "Print the built-in configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
				return err
			},
		},
		&cobra.Command{
			Use:   "validate <path>",
			Short: "Load a configuration file and check it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(args[0])
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %d agents, %d layers, %d generations\n", cfg.AgentCount, len(cfg.Layers), cfg.Generations)
				return nil
			},
		},
		&cobra.Command{
			Use:   "write <path>",
			Short: "Write the built-in configuration to a YAML file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := os.Stat(args[0]); err == nil {
					return fmt.Errorf("%s already exists", args[0])
				}
				cfg, err := config.Default()
				if err != nil {
					return err
				}
				return cfg.WriteYAML(args[0])
			},
		},
	)
	return cmd
}
