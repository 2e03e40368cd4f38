package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"attendance-bot/config"
	"attendance-bot/internal/attendance"
	"attendance-bot/internal/dispatch"
	"attendance-bot/internal/parse"
	"attendance-bot/internal/store"
	"attendance-bot/internal/timeacct"
)

type replaySummary struct {
	Events   int
	Applied  int
	Rejected int
	Ignored  int
	Failed   int
}

func newReplayCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "replay <events.jsonl>",
		Short: "Apply recorded chat events to the configured ledger",
		Long: "Reads one JSON event per line ({\"employee_id\", \"employee_name\", \"channel\", \"text\", \"timestamp\"})\n" +
			"and feeds them through the same classifier and state machine as the daemon. Use it to backfill\n" +
			"the ledger after an outage. Do not run it while the daemon writes the same ledger.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			d, err := openDispatcher(ctx, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			sum, err := replayEvents(ctx, f, d, func(ev dispatch.Event, res dispatch.Result) {
				if verbose {
					msg, _ := res.Reply(ev.EmployeeName, true)
					fmt.Fprintf(out, "%s %s: %s\n", ev.Timestamp.Format("2006-01-02T15:04:05Z07:00"), ev.ID, msg)
				}
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Replayed %d events: %d applied, %d rejected, %d ignored, %d failed\n",
				sum.Events, sum.Applied, sum.Rejected, sum.Ignored, sum.Failed)
			if sum.Failed > 0 {
				return fmt.Errorf("%d events hit a ledger consistency violation", sum.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the reply for every event")
	return cmd
}

// openDispatcher wires the attendance core over the configured ledger.
func openDispatcher(ctx context.Context, cfg *config.Config) (*dispatch.Dispatcher, error) {
	zone, err := timeacct.LoadZone(cfg.Attendance.Timezone)
	if err != nil {
		return nil, err
	}
	backend, err := store.NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	ledger := store.NewLedger(backend)
	if err := ledger.Load(ctx); err != nil {
		return nil, err
	}

	machine := attendance.NewMachine(ledger, zone)
	classifier := parse.NewClassifier(cfg.Attendance.MatchThreshold)
	return dispatch.NewDispatcher(cfg.Attendance.Channel, classifier, machine, cfg.Attendance.QueueSize), nil
}

// replayEvents handles each JSON line of r in order. Blank lines are skipped.
func replayEvents(ctx context.Context, r io.Reader, d *dispatch.Dispatcher, each func(dispatch.Event, dispatch.Result)) (replaySummary, error) {
	var sum replaySummary

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var ev dispatch.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return sum, fmt.Errorf("line %d: %w", line, err)
		}
		if ev.Timestamp.IsZero() {
			return sum, fmt.Errorf("line %d: event has no timestamp", line)
		}
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}

		res := d.Handle(ctx, ev)
		sum.Events++
		switch {
		case res.Ignored:
			sum.Ignored++
		case res.Err != nil:
			sum.Failed++
		case res.Outcome.Applied:
			sum.Applied++
		default:
			sum.Rejected++
		}
		if each != nil {
			each(ev, res)
		}
	}
	if err := scanner.Err(); err != nil {
		return sum, fmt.Errorf("reading events: %w", err)
	}
	return sum, nil
}
