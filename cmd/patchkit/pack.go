package main

import (
	"github.com/spf13/cobra"

	"github.com/meigma/patchkit"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack cached files into archives",
	Long: `Reads the project manifest and placement index and writes every archive
whose declared path matches --filter. Any failure aborts the run and removes
the archives it had started.`,
	Args: cobra.NoArgs,
	Run:  runPack,
}

const filterFlag = "filter"

func init() {
	flags := packCmd.Flags()
	flags.StringP(filterFlag, "f", "**", "glob selecting archives by declared path")
	addWorkersFlag(flags, "archives")
}

func runPack(cmd *cobra.Command, _ []string) {
	p := loadProject(cmd)
	filter, _ := cmd.Flags().GetString(filterFlag)
	workers, _ := cmd.Flags().GetInt(workersFlag)

	bar := newProgressBar(cmd, "pack")
	opts := []patchkit.PackOption{
		patchkit.PackWithFilter(filter),
		patchkit.PackWithCodec(selectedCodec(cmd)),
		patchkit.PackWithLogger(newLogger(cmd)),
		patchkit.PackWithProgress(bar.update),
	}
	if workers > 0 {
		opts = append(opts, patchkit.PackWithWorkers(workers))
	}

	stats, err := patchkit.Pack(cmd.Context(), p.PackTarget(), opts...)
	bar.finish()
	ExitOnErr(cmd, err)
	printPackStats(cmd, stats)
}
