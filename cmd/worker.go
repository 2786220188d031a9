package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/linkpilot-ai/linkpilot/scheduler"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a dispatch queue worker",
	Long: `Consumes publish and snapshot tasks from the distributed queue. Requires
the queue transport to be reachable; in fallback mode dispatch runs inside
the rest process and there is nothing to consume.`,
	Run: workerRun,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func workerRun(_ *cobra.Command, _ []string) {
	if schedulerService.Mode() != scheduler.ModeDistributed {
		logrus.Fatalln("[WORKER] Queue transport unavailable, worker cannot start. Run `rest` for fallback-mode dispatch.")
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[WORKER] Reception of termination signal, shutting down gracefully...")
		cancel()
	}()

	logrus.Info("[WORKER] Consuming dispatch queue")
	schedulerService.StartWorker(ctx)
	StopApp()
}
