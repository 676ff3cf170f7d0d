package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/hems/jobs/optimization"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one optimization job and keep dispatching its control signals",
	RunE:  optimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func optimize(cmd *cobra.Command, args []string) error {
	ctx, stop := notifyContext()
	defer stop()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeService(svc)
	if svc.Runner() == nil {
		return fmt.Errorf("optimization.endpoint is not configured")
	}
	out := cmd.OutOrStdout()
	svc.Runner().SetHooks(optimization.Hooks{
		OnJobID:  func(id int) { fmt.Fprintf(out, "job %d started\n", id) },
		OnStatus: func(s optimization.JobStatus) { fmt.Fprintf(out, "job state %s %s\n", s.State, s.Message) },
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx) })
	g.Go(func() error {
		rep, err := svc.RunOptimization(gctx)
		if err != nil {
			stop()
			return err
		}
		fmt.Fprintf(out, "job %d: %d devices scheduled, %d skipped\n", rep.JobID, len(rep.Result.Applied), len(rep.Result.Skipped))
		return nil
	})
	return g.Wait()
}
