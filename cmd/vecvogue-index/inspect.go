package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/usecase/ingest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the build id, dimension and count of an index pair",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().String("index", "", "index path (default: catalog.index_path)")
	inspectCmd.Flags().String("meta", "", "metadata path (default: catalog.meta_path)")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	indexPath := flagOr(cmd, "index", cfg.Catalog.IndexPath)
	metaPath := flagOr(cmd, "meta", cfg.Catalog.MetaPath)

	rep, err := ingest.Inspect(indexPath, metaPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "build id:     %s\n", rep.BuildID)
	fmt.Fprintf(out, "dimension:    %d\n", rep.Dim)
	fmt.Fprintf(out, "vectors:      %d\n", rep.Vectors)
	fmt.Fprintf(out, "meta records: %d\n", rep.MetaRecords)
	fmt.Fprintf(out, "digest:       index %016x, meta %016x\n", rep.IndexDigest, rep.MetaDigest)

	if !rep.Consistent() {
		return fmt.Errorf("%w: digest or count differs", domain.ErrIndexMismatch)
	}
	fmt.Fprintln(out, "status:       ok")
	return nil
}
