// Parameter sweep tool: runs headless simulations over a grid of genome mode
// parameters and reports the combinations with the most stable populations.
//
// Usage: go run ./cmd/tune --output results/
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxFrames := flag.Int("max-frames", 18000, "Frames per evaluation run")
	seeds := flag.Int("seeds", 3, "Seeds per parameter combination")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	ev := NewEvaluator(*configPath, *maxFrames, evalSeeds)

	splitIntervals := []float64{8, 12, 16, 24}
	nitrateRates := []float64{0.005, 0.010, 0.020, 0.040}

	var results []Result
	start := time.Now()
	total := len(splitIntervals) * len(nitrateRates)
	done := 0

	for _, si := range splitIntervals {
		for _, nr := range nitrateRates {
			res, err := ev.Evaluate(si, nr)
			if err != nil {
				log.Fatalf("evaluation failed (split=%v nitrate=%v): %v", si, nr, err)
			}
			results = append(results, res)
			done++
			fmt.Printf("[%d/%d] split=%.0f nitrate=%.3f score=%.3f pop=%.0f (%s elapsed)\n",
				done, total, si, nr, res.Score, res.MeanPopulation, formatDuration(time.Since(start)))
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if err := writeResults(filepath.Join(*outputDir, "sweep.csv"), results); err != nil {
		log.Fatalf("failed to write results: %v", err)
	}

	best := results[0]
	fmt.Printf("\nbest: split_interval=%.0f nitrate_rate=%.3f score=%.3f\n",
		best.SplitInterval, best.NitrateRate, best.Score)
}

func writeResults(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"split_interval", "nitrate_rate", "score", "mean_population", "final_population", "drops"}); err != nil {
		return err
	}
	for _, r := range results {
		rec := []string{
			strconv.FormatFloat(r.SplitInterval, 'f', 1, 64),
			strconv.FormatFloat(r.NitrateRate, 'f', 4, 64),
			strconv.FormatFloat(r.Score, 'f', 4, 64),
			strconv.FormatFloat(r.MeanPopulation, 'f', 1, 64),
			strconv.Itoa(r.FinalPopulation),
			strconv.FormatUint(r.Drops, 10),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
