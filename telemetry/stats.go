package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartFrame int64   `csv:"-"`
	WindowEndFrame   int64   `csv:"window_end"`
	SimTimeSec       float64 `csv:"sim_time"`

	// Population at window end. CellCount is the host-visible value, one
	// frame behind device truth.
	CellCount    int `csv:"cells"`
	VisibleCount int `csv:"visible"`

	// Events during window
	Births     int `csv:"births"`
	Deaths     int `csv:"deaths"`
	QueueDrops int `csv:"queue_drops"`
	StoreDrops int `csv:"store_drops"`
	IDFailures int `csv:"id_failures"`

	// Detail-level distribution at window end
	LOD0 int `csv:"lod0"`
	LOD1 int `csv:"lod1"`
	LOD2 int `csv:"lod2"`
	LOD3 int `csv:"lod3"`

	// Barrier coordinator
	BarriersRequested int     `csv:"barriers_requested"`
	BarriersBatched   int     `csv:"barriers_batched"`
	BarrierFlushes    int     `csv:"barrier_flushes"`
	BarrierEfficiency float64 `csv:"barrier_efficiency"`

	// Mass distribution (sampled from the staging mirror at window end)
	MassMean float64 `csv:"mass_mean"`
	MassStd  float64 `csv:"mass_std"`
	MassP10  float64 `csv:"mass_p10"`
	MassP50  float64 `csv:"mass_p50"`
	MassP90  float64 `csv:"mass_p90"`

	// Age distribution
	AgeMean float64 `csv:"age_mean"`
	AgeP10  float64 `csv:"age_p10"`
	AgeP50  float64 `csv:"age_p50"`
	AgeP90  float64 `csv:"age_p90"`
}

// Distribution summarizes one sampled population value.
type Distribution struct {
	Mean float64
	Std  float64
	P10  float64
	P50  float64
	P90  float64
}

// ComputeDistribution calculates mean, std, and percentiles of a sample.
// The input slice is sorted in place.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sort.Float64s(values)
	d := Distribution{
		Mean: stat.Mean(values, nil),
		P10:  stat.Quantile(0.10, stat.Empirical, values, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, values, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, values, nil),
	}
	// StdDev divides by n-1; a single sample has no spread.
	if len(values) > 1 {
		d.Std = stat.StdDev(values, nil)
	}
	return d
}

// LogWindow logs the window summary.
func (w WindowStats) LogWindow() {
	slog.Info("window",
		"frame", w.WindowEndFrame,
		"sim_time", w.SimTimeSec,
		"cells", w.CellCount,
		"visible", w.VisibleCount,
		"births", w.Births,
		"deaths", w.Deaths,
		"queue_drops", w.QueueDrops,
		"store_drops", w.StoreDrops,
		"id_failures", w.IDFailures,
		"barrier_efficiency", w.BarrierEfficiency,
		"mass_p50", w.MassP50,
		"age_p50", w.AgeP50,
	)
}
