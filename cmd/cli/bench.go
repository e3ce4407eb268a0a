package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type benchConfig struct {
	Senders     []string
	Receiver    string
	Amount      int64
	Requests    int
	Concurrency int
	RPS         float64
}

type benchFailure struct {
	Sender     string
	StatusCode int
	Message    string
	Err        error
}

type benchReport struct {
	Total     int
	Latencies []time.Duration
	Failures  []benchFailure
}

type latencyStats struct {
	Avg    time.Duration
	Max    time.Duration
	Min    time.Duration
	StdDev time.Duration
}

func newBenchCmd() *cobra.Command {
	cfg := benchConfig{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Send transfers from each sender to one receiver and report latency",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runBench(cmd.Context(), newClient(baseURL, timeout), cfg)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), cfg, report)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&cfg.Senders, "senders", []string{"user1", "user2", "user3", "user4"}, "Sender account ids")
	cmd.Flags().StringVar(&cfg.Receiver, "receiver", "user5", "Receiver account id")
	cmd.Flags().Int64Var(&cfg.Amount, "amount", 1, "Amount per transfer")
	cmd.Flags().IntVarP(&cfg.Requests, "requests", "n", 10, "Requests per sender")
	cmd.Flags().IntVarP(&cfg.Concurrency, "concurrency", "c", 1, "Requests in flight")
	cmd.Flags().Float64Var(&cfg.RPS, "rps", 0, "Request rate limit (0 = unlimited)")

	return cmd
}

func runBench(ctx context.Context, c *client, cfg benchConfig) (benchReport, error) {
	if cfg.Requests <= 0 || len(cfg.Senders) == 0 {
		return benchReport{}, fmt.Errorf("need at least one sender and one request")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}

	var (
		mu     sync.Mutex
		report = benchReport{Total: len(cfg.Senders) * cfg.Requests}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for _, sender := range cfg.Senders {
		for range cfg.Requests {
			g.Go(func() error {
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						return err
					}
				}

				start := time.Now()
				res, err := c.Transfer(gctx, transferBody{Sender: sender, Receiver: cfg.Receiver, Amount: cfg.Amount})
				elapsed := time.Since(start)

				mu.Lock()
				defer mu.Unlock()

				report.Latencies = append(report.Latencies, elapsed)
				if err != nil || res.StatusCode != http.StatusOK {
					report.Failures = append(report.Failures, benchFailure{
						Sender:     sender,
						StatusCode: res.StatusCode,
						Message:    res.Message,
						Err:        err,
					})
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	return report, nil
}

// computeStats uses the population standard deviation.
func computeStats(latencies []time.Duration) latencyStats {
	if len(latencies) == 0 {
		return latencyStats{}
	}

	stats := latencyStats{Min: latencies[0], Max: latencies[0]}
	var sum float64
	for _, l := range latencies {
		sum += float64(l)
		stats.Min = min(stats.Min, l)
		stats.Max = max(stats.Max, l)
	}
	mean := sum / float64(len(latencies))

	var variance float64
	for _, l := range latencies {
		d := float64(l) - mean
		variance += d * d
	}
	variance /= float64(len(latencies))

	stats.Avg = time.Duration(mean)
	stats.StdDev = time.Duration(math.Sqrt(variance))

	return stats
}

func printReport(w io.Writer, cfg benchConfig, report benchReport) {
	for _, f := range report.Failures {
		if f.Err != nil {
			fmt.Fprintf(w, "Transfer failed for sender: %s, amount: %d, error: %v\n", f.Sender, cfg.Amount, f.Err)
			continue
		}
		fmt.Fprintf(w, "Transfer failed for sender: %s, amount: %d, Status code: %d, Message: %s\n", f.Sender, cfg.Amount, f.StatusCode, f.Message)
	}

	stats := computeStats(report.Latencies)
	fmt.Fprintf(w, "\nAverage latency for %d requests per user with amount %d: %.4f seconds\n", cfg.Requests, cfg.Amount, stats.Avg.Seconds())
	fmt.Fprintf(w, "Max latency: %.4f seconds\n", stats.Max.Seconds())
	fmt.Fprintf(w, "Min latency: %.4f seconds\n", stats.Min.Seconds())
	fmt.Fprintf(w, "Standard deviation: %.4f seconds\n", stats.StdDev.Seconds())
	fmt.Fprintf(w, "Failed Count: %d out of %d\n", len(report.Failures), report.Total)
}
