package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/meigma/patchkit/archive"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "List the entries of an archive",
	Long: `Lists the directory of a packed archive. With --verify every payload is
read back and checked against the metadata recorded for it.`,
	Args: cobra.ExactArgs(1),
	Run:  runInspect,
}

const verifyFlag = "verify"

func init() {
	inspectCmd.Flags().Bool(verifyFlag, false, "verify entry payloads")
}

func runInspect(cmd *cobra.Command, args []string) {
	verify, _ := cmd.Flags().GetBool(verifyFlag)
	codec := selectedCodec(cmd)

	r, err := archive.Open(args[0])
	ExitOnErr(cmd, err)
	defer r.Close()

	header := []string{"Fingerprint", "Raw", "Compressed", "Stored Compressed", "Offset", "Raw Hash"}
	if verify {
		header = append(header, "Status")
	}
	rows := make([][]string, 0, len(r.Entries()))
	failed := 0
	for _, e := range r.Entries() {
		row := []string{
			fmt.Sprintf("%08x", e.Fingerprint),
			strconv.FormatUint(e.Raw.Size, 10),
			strconv.FormatUint(e.Compressed.Size, 10),
			strconv.FormatBool(e.IsCompressed),
			strconv.FormatUint(e.Offset, 10),
			e.Raw.Hash.String(),
		}
		if verify {
			status := "ok"
			if err := r.Verify(cmd.Context(), e, codec); err != nil {
				cmd.PrintErrln(err)
				status = "FAILED"
				failed++
			}
			row = append(row, status)
		}
		rows = append(rows, row)
	}
	printTable(cmd, header, rows)
	cmd.Printf("%d entries\n", len(rows))
	if failed > 0 {
		ExitOnErr(cmd, fmt.Errorf("%d of %d entries failed verification", failed, len(rows)))
	}
}
