package main

import (
	"github.com/spf13/cobra"

	"github.com/meigma/patchkit"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Update the compressed cache and manifest of a project",
	Long: `Scans the project tree, or the files listed with --files, compresses new
content into the store and writes a new manifest. Files that fail to hash or
compress are logged and left out; they do not affect the exit status.`,
	Args: cobra.NoArgs,
	Run:  runCache,
}

const (
	versionFlag   = "version"
	nameFlag      = "name"
	includePKFlag = "include-pk"
	filesFlag     = "files"
	relativeFlag  = "relative"
	workersFlag   = "workers"
)

func init() {
	flags := cacheCmd.Flags()
	flags.Uint32P(versionFlag, "v", patchkit.DefaultVersion, "manifest version number")
	flags.StringP(nameFlag, "n", "", "manifest version label (default: the version number)")
	flags.BoolP(includePKFlag, "i", false, "cache .pk files found in the project")
	flags.StringP(filesFlag, "F", "", "only process the files listed in this file, - for stdin")
	flags.BoolP(relativeFlag, "r", false, "listed files are relative to the project directory")
	addWorkersFlag(flags, "files")
}

func runCache(cmd *cobra.Command, _ []string) {
	p := loadProject(cmd)
	flags := cmd.Flags()
	version, _ := flags.GetUint32(versionFlag)
	name, _ := flags.GetString(nameFlag)
	includePK, _ := flags.GetBool(includePKFlag)
	files, _ := flags.GetString(filesFlag)
	relative, _ := flags.GetBool(relativeFlag)
	workers, _ := flags.GetInt(workersFlag)

	bar := newProgressBar(cmd, "cache")
	opts := []patchkit.CacheOption{
		patchkit.CacheWithVersion(version, name),
		patchkit.CacheWithIncludePK(includePK),
		patchkit.CacheWithFileList(files),
		patchkit.CacheWithStdin(cmd.InOrStdin()),
		patchkit.CacheWithRelative(relative),
		patchkit.CacheWithCodec(selectedCodec(cmd)),
		patchkit.CacheWithLogger(newLogger(cmd)),
		patchkit.CacheWithProgress(bar.update),
	}
	if workers > 0 {
		opts = append(opts, patchkit.CacheWithWorkers(workers))
	}

	stats, err := patchkit.Cache(cmd.Context(), p, opts...)
	bar.finish()
	ExitOnErr(cmd, err)
	printStats(cmd, stats)
}
