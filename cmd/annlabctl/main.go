package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"annlab/internal/logging"
	"annlab/internal/storage"
	annlab "annlab/pkg/annlab"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

type globalFlags struct {
	store    string
	dbPath   string
	logLevel string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "annlabctl",
		Short: "Evolve layered neural networks with pluggable genetic strategies",
		Long: `annlabctl evolves a population of fixed-topology networks toward a
target output. Every evolutionary step (fitness, sorting, elitism, selection,
bedding, crossover, mutation, breeding, culling) is a named strategy chosen in
the run configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&g.store, "store", storage.DefaultStoreKind(), "store backend: memory or sqlite")
	root.PersistentFlags().StringVar(&g.dbPath, "db-path", "annlab.db", "sqlite database path")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		newRunCmd(g),
		newRunsCmd(g),
		newExportCmd(g),
		newStrategiesCmd(),
		newConfigCmd(),
	)
	return root
}

func (g *globalFlags) client(cmd *cobra.Command, exportsDir string) (*annlab.Client, error) {
	level, err := logging.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	return annlab.New(annlab.Options{
		StoreKind:  g.store,
		DBPath:     g.dbPath,
		ExportsDir: exportsDir,
		Logger:     logging.New(cmd.ErrOrStderr(), level),
	})
}
