package entity

import (
	"context"
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dEntity/cmd/util"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dEntity servers",
		Long:    "Runs a series of load tests against a shard. The entity type used by the tests (--perf-type) must be declared on the server.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfIDPrefix   = "__perf"
	perfType       = "PerfRecord"
	perfOps        = 1000
	perfNumThreads = 10
	perfIDSpread   = 100
	perfValueSize  = 64
	perfSkip       = make([]string, 0)

	// perfMetrics holds one timer and one error counter per test
	perfMetrics = metrics.NewRegistry()
)

// perfTest is a single load test. op is called perfOps times by perfNumThreads workers.
type perfTest struct {
	name    string
	prepare bool
	op      func(ctx context.Context, id string, i int) error
}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Tests to skip (comma separated - e.g. put,find)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent clients"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of operations per test"))
	key = "ids"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different entity ids to use for the tests"))
	key = "value-size"
	perfTestCmd.Flags().Int(key, 64, util.WrapString("Size of every property value in bytes"))
	key = "perf-type"
	perfTestCmd.Flags().String(key, "PerfRecord", util.WrapString("Entity type used by the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save the results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOps = max(viper.GetInt("ops"), 1)
	perfIDSpread = max(viper.GetInt("ids"), 1)
	perfValueSize = max(viper.GetInt("value-size"), 0)
	perfType = viper.GetString("perf-type")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	ctx := requestContext(cmd)

	fmt.Println("Performance testing tool for dEntity servers")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Operations: %d, Entity Type: %s\n", perfNumThreads, perfOps, perfType)
	fmt.Println()

	value := strings.Repeat("x", perfValueSize)

	tests := []perfTest{
		{
			name: "put",
			op: func(ctx context.Context, id string, i int) error {
				return putPerfEntity(ctx, id, value, false)
			},
		},
		{
			name:    "put-partial",
			prepare: true,
			op: func(ctx context.Context, id string, i int) error {
				return putPerfEntity(ctx, id, strconv.Itoa(i), true)
			},
		},
		{
			name:    "get",
			prepare: true,
			op: func(ctx context.Context, id string, i int) error {
				_, err := rpcClient.Fetch(ctx, []string{id})
				return err
			},
		},
		{
			name:    "find",
			prepare: true,
			op: func(ctx context.Context, id string, i int) error {
				_, err := rpcClient.Find(ctx, perfType, "a", value)
				return err
			},
		},
		{
			name:    "del",
			prepare: true,
			op: func(ctx context.Context, id string, i int) error {
				return rpcClient.Forward(ctx, store.Delete(id))
			},
		},
		{
			name: "mixed",
			op: func(ctx context.Context, id string, i int) error {
				switch i % 4 {
				case 0:
					return putPerfEntity(ctx, id, value, false)
				case 1:
					_, err := rpcClient.Fetch(ctx, []string{id})
					return err
				case 2:
					return putPerfEntity(ctx, id, value, true)
				default:
					return rpcClient.Forward(ctx, store.Delete(id))
				}
			},
		},
	}

	fmt.Println("starting tests...")
	for _, test := range tests {
		if slices.Contains(perfSkip, test.name) {
			fmt.Printf("%-14sskipped\n", test.name)
			continue
		}
		if err := runPerfTest(ctx, test, value); err != nil {
			return err
		}
		printPerfResult(test.name)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runPerfTest prepares the ids of a test, runs it and deletes the ids afterward
func runPerfTest(ctx context.Context, test perfTest, value string) error {
	ids := make([]string, perfIDSpread)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%s-%d", perfIDPrefix, test.name, i)
	}

	if test.prepare {
		for _, id := range ids {
			if err := putPerfEntity(ctx, id, value, false); err != nil {
				return fmt.Errorf("(%s) - failed to prepare entity %s: %w", test.name, id, err)
			}
		}
	}
	defer func() {
		if err := rpcClient.Forward(ctx, store.Delete(ids...)); err != nil {
			log.Printf("(%s) - error deleting entities: %v\n", test.name, err)
		}
	}()

	timer := metrics.GetOrRegisterTimer(test.name, perfMetrics)
	errs := metrics.GetOrRegisterCounter(test.name+".errors", perfMetrics)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < perfNumThreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := time.Now()
				err := test.op(ctx, ids[i%len(ids)], i)
				timer.UpdateSince(start)
				if err != nil {
					errs.Inc(1)
					log.Printf("(%s) - error: %v\n", test.name, err)
				}
			}
		}()
	}

	for i := 0; i < perfOps; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return nil
}

// putPerfEntity saves an entity with the properties a and b. A partial put only changes b.
func putPerfEntity(ctx context.Context, id, value string, partial bool) error {
	e, err := createEntity(perfType, id)
	if err != nil {
		return err
	}

	cs := store.Save(e)
	if partial {
		e.UpdateProperties(map[string]string{"b": value})
		cs.ChangedProperties = map[string][]string{id: {"b"}}
	} else {
		e.UpdateProperties(map[string]string{"a": value, "b": value})
	}
	return rpcClient.Forward(ctx, cs)
}

// printPerfResult prints the timer of a test in a formatted way
func printPerfResult(test string) {
	timer := metrics.GetOrRegisterTimer(test, perfMetrics).Snapshot()
	errs := metrics.GetOrRegisterCounter(test+".errors", perfMetrics).Count()
	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})

	fmt.Printf("%-14s%8.0f ops/sec  mean %-12s p50 %-12s p95 %-12s p99 %-12s errors %d\n",
		test,
		timer.RateMean(),
		time.Duration(timer.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		time.Duration(ps[2]),
		errs,
	)
}

// writeResultsToCSV writes all recorded timers to a CSV file
func writeResultsToCSV(csvPath string, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "Count", "Errors", "OpsPerSec", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs",
		"Endpoints", "TimeoutSec", "RetryCount", "ShardID", "Serializer",
		"Threads", "Ids", "ValueSize",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	var writeErr error
	perfMetrics.Each(func(name string, m interface{}) {
		timer, ok := m.(metrics.Timer)
		if !ok || writeErr != nil {
			return
		}
		snapshot := timer.Snapshot()
		ps := snapshot.Percentiles([]float64{0.5, 0.95, 0.99})

		row := []string{
			name,
			strconv.FormatInt(snapshot.Count(), 10),
			strconv.FormatInt(metrics.GetOrRegisterCounter(name+".errors", perfMetrics).Count(), 10),
			fmt.Sprintf("%.0f", snapshot.RateMean()),
			fmt.Sprintf("%.0f", snapshot.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(snapshot.Max(), 10),
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfIDSpread),
			strconv.Itoa(perfValueSize),
		}
		if err := writer.Write(row); err != nil {
			writeErr = fmt.Errorf("failed to write row for test %s: %v", name, err)
		}
	})

	return writeErr
}
