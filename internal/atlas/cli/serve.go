package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/atlas/internal/atlas/web"
)

var (
	serveAddr string
	serveDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports for a directory of snapshots",
	Long: `Starts an HTTP server over a directory of .atlas.yaml snapshots.

Routes:
  /ui                    snapshot overview
  /ui/report/{name}      full HTML report
  /api/reports           snapshot list (JSON)
  /api/reports/{name}    full report (JSON)
  /health                liveness probe`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDir, "dir", "snapshots", "Directory of snapshot files")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(web.Config{
		Addr:       serveAddr,
		StorageDir: serveDir,
	}, newLogger())
	return srv.Start(ctx)
}
