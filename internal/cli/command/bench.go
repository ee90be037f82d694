package command

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rudis-go/internal/cli/connection"
	"github.com/yndnr/rudis-go/internal/cli/output"
	"github.com/yndnr/rudis-go/internal/resp"
)

// BenchOptions configures a benchmark run.
type BenchOptions struct {
	Server   string
	Timeout  time.Duration
	Args     []string
	Requests int
	Clients  int
	Pipeline int
	// Progress, when set, receives a progress bar.
	Progress io.Writer
}

// BenchResult summarizes a benchmark run. Latencies are per pipelined batch.
type BenchResult struct {
	Command    string        `json:"command" yaml:"command"`
	Requests   int           `json:"requests" yaml:"requests"`
	Clients    int           `json:"clients" yaml:"clients"`
	Pipeline   int           `json:"pipeline" yaml:"pipeline" table:"wide"`
	Errors     int           `json:"errors" yaml:"errors"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Throughput float64       `json:"requests_per_second" yaml:"requests_per_second"`
	P50        time.Duration `json:"p50" yaml:"p50"`
	P99        time.Duration `json:"p99" yaml:"p99" table:"wide"`
	Max        time.Duration `json:"max" yaml:"max" table:"wide"`
}

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:      "bench",
		Usage:     "Send many requests from concurrent clients and report throughput",
		ArgsUsage: "[VERB [ARG...]]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "requests",
				Aliases: []string{"n"},
				Usage:   "Total number of requests",
				Value:   10000,
			},
			&cli.IntFlag{
				Name:    "clients",
				Aliases: []string{"c"},
				Usage:   "Number of parallel connections",
				Value:   10,
			},
			&cli.IntFlag{
				Name:    "pipeline",
				Aliases: []string{"P"},
				Usage:   "Requests per round trip",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
		},
		Action: benchAction,
	}
}

func benchAction(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	args := c.Args().Slice()
	if len(args) == 0 {
		args = []string{"PING"}
	}
	opts := BenchOptions{
		Server:   env.Config.Server(),
		Timeout:  env.Config.RequestTimeout(),
		Args:     args,
		Requests: c.Int("requests"),
		Clients:  c.Int("clients"),
		Pipeline: c.Int("pipeline"),
	}
	if !c.Bool("quiet") && !env.structured() {
		opts.Progress = env.Err
	}

	result, err := RunBench(c.Context, opts)
	if err != nil {
		return err
	}
	return env.Print(result)
}

// RunBench runs a benchmark. Each client owns one connection and takes
// batches of opts.Pipeline requests until opts.Requests have been sent.
func RunBench(ctx context.Context, opts BenchOptions) (*BenchResult, error) {
	if opts.Requests < 1 || opts.Clients < 1 || opts.Pipeline < 1 {
		return nil, fmt.Errorf("requests, clients and pipeline must be positive")
	}
	if len(opts.Args) == 0 {
		return nil, fmt.Errorf("command required")
	}
	if opts.Clients > opts.Requests {
		opts.Clients = opts.Requests
	}

	clients := make([]*connection.Client, 0, opts.Clients)
	defer func() {
		for _, cl := range clients {
			cl.Close()
		}
	}()
	for i := 0; i < opts.Clients; i++ {
		cl, err := connection.Dial(ctx, opts.Server, opts.Timeout)
		if err != nil {
			return nil, err
		}
		clients = append(clients, cl)
	}

	batches := make(chan int, opts.Requests/opts.Pipeline+1)
	for left := opts.Requests; left > 0; left -= opts.Pipeline {
		batches <- min(left, opts.Pipeline)
	}
	close(batches)

	var bar *output.ProgressBar
	if opts.Progress != nil {
		bar = output.NewProgressBar(opts.Progress, opts.Args[0], int64(opts.Requests))
	}

	req := resp.Command(opts.Args...)
	var (
		mu        sync.Mutex
		latencies []time.Duration
		replyErrs int
		firstErr  error
		wg        sync.WaitGroup
	)

	start := time.Now()
	for _, cl := range clients {
		wg.Add(1)
		go func(cl *connection.Client) {
			defer wg.Done()
			reqs := make([]resp.Array, 0, opts.Pipeline)
			for n := range batches {
				reqs = reqs[:0]
				for i := 0; i < n; i++ {
					reqs = append(reqs, req)
				}
				t0 := time.Now()
				frames, err := cl.Pipeline(ctx, reqs...)
				lat := time.Since(t0)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				latencies = append(latencies, lat)
				for _, f := range frames {
					if connection.ReplyError(f) != nil {
						replyErrs++
					}
				}
				mu.Unlock()

				if bar != nil {
					bar.Increment(int64(n))
				}
			}
		}(cl)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if firstErr != nil {
		return nil, firstErr
	}
	if bar != nil {
		bar.Finish()
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	result := &BenchResult{
		Command:  opts.Args[0],
		Requests: opts.Requests,
		Clients:  opts.Clients,
		Pipeline: opts.Pipeline,
		Errors:   replyErrs,
		Elapsed:  elapsed,
		P50:      percentile(latencies, 0.50),
		P99:      percentile(latencies, 0.99),
	}
	if len(latencies) > 0 {
		result.Max = latencies[len(latencies)-1]
	}
	if elapsed > 0 {
		result.Throughput = float64(opts.Requests) / elapsed.Seconds()
	}
	return result, nil
}

// percentile returns the p-th value of sorted, or zero when it is empty.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(float64(len(sorted)-1) * p)
	return sorted[i]
}
