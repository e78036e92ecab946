package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cheggaaa/pb"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/meigma/patchkit"
)

// ExitOnErr prints err via cmd and exits with code 1.
// Does nothing if err is nil.
func ExitOnErr(cmd *cobra.Command, err error) {
	if err != nil {
		cmd.PrintErrln(err)
		os.Exit(1)
	}
}

// addWorkersFlag registers the concurrency flag shared by cache and pack.
func addWorkersFlag(flags *pflag.FlagSet, what string) {
	flags.Int(workersFlag, 0, what+" processed concurrently (default: number of CPUs)")
}

// progressBar renders progress events on stderr. A nil bar ignores events.
type progressBar struct {
	bar *pb.ProgressBar
}

func newProgressBar(cmd *cobra.Command, prefix string) *progressBar {
	if noProgress {
		return &progressBar{}
	}
	bar := pb.New(0)
	bar.Output = cmd.ErrOrStderr()
	bar.ShowSpeed = true
	bar.Prefix(prefix + " ")
	bar.Start()
	return &progressBar{bar: bar}
}

func (p *progressBar) update(e patchkit.ProgressEvent) {
	if p.bar == nil {
		return
	}
	if e.FilesTotal > 0 {
		p.bar.SetTotal(e.FilesTotal)
	}
	p.bar.Increment()
}

func (p *progressBar) finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}

func printTable(cmd *cobra.Command, header []string, rows [][]string) {
	out := tablewriter.NewWriter(cmd.OutOrStdout())
	out.SetHeader(header)
	out.SetAutoWrapText(false)
	out.SetAlignment(tablewriter.ALIGN_RIGHT)
	out.AppendBulk(rows)
	out.Render()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func printStats(cmd *cobra.Command, s *patchkit.Stats) {
	printTable(cmd, []string{"Total", "Ignored", "QuickCheck", "Digested", "Compressed", "Dedup", "Reused", "Updated", "Dropped", "Removed"},
		[][]string{{
			itoa(s.Total), itoa(s.Ignored), itoa(s.QuickCheck), itoa(s.Digested), itoa(s.Compressed),
			itoa(s.Deduplicated), itoa(s.Reused), itoa(s.Updated), itoa(s.Dropped), itoa(s.Removed),
		}})
}

func printPackStats(cmd *cobra.Command, s *patchkit.PackStats) {
	printTable(cmd, []string{"Archives", "Packed", "Bytes", "Loose", "Skipped"},
		[][]string{{itoa(s.Archives), itoa(s.Packed), fmt.Sprint(s.Bytes), itoa(s.Loose), itoa(s.Skipped)}})
}
