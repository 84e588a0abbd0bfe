package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/pagesim/monitoring"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulations over HTTP.",
		Long: "`serve` starts a web server that accepts POST /simulate " +
			"requests and hosts the visualizer page.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	flags := serveCmd.Flags()
	flags.IntP("port", "p", 8080, "Port to listen on.")
	flags.String("allow-origin", "*",
		"Value of the Access-Control-Allow-Origin header.")
	flags.Bool("open", false, "Open the visualizer in a browser.")

	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	port, err := intSetting(cmd, "port", envPort)
	if err != nil {
		return err
	}

	monitor := monitoring.NewMonitor().
		WithPortNumber(port).
		WithAllowOrigin(stringSetting(cmd, "allow-origin", envAllowOrigin))

	url := monitor.StartServer()

	if open, _ := cmd.Flags().GetBool("open"); open {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), 5*time.Second)
	defer cancel()

	return monitor.Shutdown(shutdownCtx)
}
