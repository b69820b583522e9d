package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/tallybook/tallybook/jobs"
)

// jobsCLI wraps manual management helpers for Asynq jobs.
type jobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func newJobsCLI(redisAddr string) *jobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &jobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *jobsCLI) Close() error {
	return errors.Join(c.inspector.Close(), c.client.Close())
}

// Trigger enqueues a supported job by its short or task name.
func (c *jobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	var task *asynq.Task
	var err error
	switch name {
	case "overdue-sweep", jobs.TaskOverdueSweep:
		task, err = jobs.NewOverdueSweepTask("cli")
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3))
}

// queueStats summarises the current queue state.
type queueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the default queue.
func (c *jobsCLI) InspectQueue() (queueStats, error) {
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return queueStats{}, err
	}
	stats := queueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

func newJobsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "trigger <overdue-sweep>",
		Short: "Enqueue a job now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := newJobsCLI(g.redisAddr)
			defer cli.Close()
			info, err := cli.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s) on %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show queue depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := newJobsCLI(g.redisAddr)
			defer cli.Close()
			stats, err := cli.InspectQueue()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue %s: pending %d, active %d, scheduled %d, retry %d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
			return nil
		},
	})
	return cmd
}
