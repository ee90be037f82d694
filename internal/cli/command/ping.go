package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rudis-go/internal/cli/connection"
	"github.com/yndnr/rudis-go/internal/cli/output"
)

// PingStats summarizes a ping run.
type PingStats struct {
	Server   string        `json:"server" yaml:"server"`
	Sent     int           `json:"sent" yaml:"sent"`
	Received int           `json:"received" yaml:"received"`
	Min      time.Duration `json:"min" yaml:"min"`
	Avg      time.Duration `json:"avg" yaml:"avg"`
	Max      time.Duration `json:"max" yaml:"max"`
}

func (s *PingStats) add(rtt time.Duration) {
	if s.Received == 0 || rtt < s.Min {
		s.Min = rtt
	}
	if rtt > s.Max {
		s.Max = rtt
	}
	s.Avg = (s.Avg*time.Duration(s.Received) + rtt) / time.Duration(s.Received+1)
	s.Received++
}

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Measure round trips to the server",
		ArgsUsage: "[MESSAGE]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Number of pings",
				Value:   1,
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Wait between pings",
				Value:   time.Second,
			},
		},
		Action: pingAction,
	}
}

func pingAction(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	count := c.Int("count")
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	stats, err := runPing(c.Context, env, c.Args().First(), count, c.Duration("interval"))
	if err != nil {
		return err
	}
	if !env.structured() {
		fmt.Fprintln(env.Out)
	}
	return env.Print(stats)
}

// runPing sends count PINGs. Per-ping lines are printed unless the output
// format is structured. It fails when no ping got a successful reply.
func runPing(ctx context.Context, env *Env, msg string, count int, interval time.Duration) (*PingStats, error) {
	args := []string{"PING"}
	if msg != "" {
		args = append(args, msg)
	}
	stats := &PingStats{Server: env.Config.Server()}

	for seq := 1; seq <= count; seq++ {
		if seq > 1 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(interval):
			}
		}

		stats.Sent++
		start := time.Now()
		frame, err := env.Do(ctx, args...)
		rtt := time.Since(start)

		switch {
		case err != nil:
			if !env.structured() {
				fmt.Fprintf(env.Out, "seq=%d error: %v\n", seq, err)
			}
		case connection.ReplyError(frame) != nil:
			if !env.structured() {
				fmt.Fprintf(env.Out, "seq=%d %s\n", seq, output.FormatReply(frame))
			}
		default:
			stats.add(rtt)
			if !env.structured() {
				fmt.Fprintf(env.Out, "seq=%d reply=%s time=%v\n", seq, output.RawReply(frame), rtt.Round(time.Microsecond))
			}
		}
	}

	if stats.Received == 0 {
		return stats, fmt.Errorf("no reply from %s", stats.Server)
	}
	return stats, nil
}
