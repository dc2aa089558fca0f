package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/export"
	"keyword-volume-go/pkg/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export <keyword>",
	Short: "Save the related keyword table as an xlsx workbook",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, true)
		if err != nil {
			return err
		}
		opts, err := viewOptions(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		result, err := rt.clients.Keywords.FetchMetrics(ctx, strings.Join(args, " "))
		if err != nil {
			return userError(err)
		}
		if len(result.Records) == 0 {
			return fmt.Errorf("%s: %w", api.MessageNoResults, export.ErrNothingToExport)
		}

		opts.FilterText = result.Keyword
		rows := pipeline.ExportRows(pipeline.ApplyOptions(result.Records, opts))
		path, err := export.WriteFile(rt.cfg.Export.Dir, pipeline.ExportFilename(result.Keyword, time.Now()), rows)
		if err != nil {
			return err
		}

		rt.log.WithFields(map[string]interface{}{"path": path, "rows": len(rows)}).Info("Export saved")
		fmt.Fprintln(os.Stdout, path)
		return nil
	},
}

func init() {
	addViewFlags(exportCmd)
	exportCmd.Flags().String("dir", ".", "directory the workbook is written to")
	_ = v.BindPFlag("export.dir", exportCmd.Flags().Lookup("dir"))

	rootCmd.AddCommand(exportCmd)
}
