// Command scheduler is the CLI entrypoint around the scheduler engine
// library: it loads a YAML course catalog, runs the DE scheduling engine,
// and writes the resulting timetables back out as YAML, following the
// cobra root-command shape the retrieved pack's CLI tooling uses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "scheduler:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "scheduler",
		Short: "Differential-evolution university timetable scheduler",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "scheduler.yaml", "path to the CLI configuration file")

	root.AddCommand(newRunCmd(&configFile))
	return root
}
