package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/engine"
)

// Result is one evaluated parameter combination, averaged over seeds.
type Result struct {
	SplitInterval   float64
	NitrateRate     float64
	Score           float64
	MeanPopulation  float64
	FinalPopulation int
	Drops           uint64
}

// Evaluator runs headless simulations and scores population stability.
type Evaluator struct {
	configPath string
	maxFrames  int
	seeds      []int64
}

// NewEvaluator creates an evaluator over the given base config and seeds.
func NewEvaluator(configPath string, maxFrames int, seeds []int64) *Evaluator {
	return &Evaluator{
		configPath: configPath,
		maxFrames:  maxFrames,
		seeds:      seeds,
	}
}

// Evaluate runs one parameter combination across all seeds and averages the
// score. Higher is better: a population that persists and grows without
// pinning against the capacity ceiling.
func (ev *Evaluator) Evaluate(splitInterval, nitrateRate float64) (Result, error) {
	res := Result{SplitInterval: splitInterval, NitrateRate: nitrateRate}

	for _, seed := range ev.seeds {
		cfg, err := config.Load(ev.configPath)
		if err != nil {
			return res, err
		}
		for i := range cfg.Modes {
			cfg.Modes[i].SplitInterval = splitInterval
			cfg.Modes[i].NitrateRate = nitrateRate
		}

		score, meanPop, finalPop, drops, err := ev.runOnce(cfg, seed)
		if err != nil {
			return res, err
		}
		res.Score += score
		res.MeanPopulation += meanPop
		res.FinalPopulation += finalPop
		res.Drops += drops
	}

	n := float64(len(ev.seeds))
	res.Score /= n
	res.MeanPopulation /= n
	res.FinalPopulation /= len(ev.seeds)
	return res, nil
}

func (ev *Evaluator) runOnce(cfg *config.Config, seed int64) (score, meanPop float64, finalPop int, drops uint64, err error) {
	eng, err := engine.New(cfg, engine.Options{Seed: seed})
	if err != nil {
		return 0, 0, 0, 0, err
	}
	defer eng.Close()

	eng.SpawnCells(cfg.Capacity.DefaultCellCount)

	const sampleEvery = 60
	samples := 0
	var popSum float64

	for frame := 0; frame < ev.maxFrames; frame++ {
		eng.Step(nil, mgl32.Vec3{})

		if frame%sampleEvery == 0 {
			popSum += float64(eng.CellCount())
			samples++
		}
		if eng.CellCount() == 0 && frame > sampleEvery {
			break // extinct, no point running on
		}
	}

	finalPop = eng.CellCount()
	drops = eng.Dropped()
	if samples > 0 {
		meanPop = popSum / float64(samples)
	}

	score = fitness(meanPop, finalPop, drops, cfg.Capacity.MaxCells)
	return score, meanPop, finalPop, drops, nil
}

// fitness rewards a persistent mid-range population. Extinction scores zero;
// saturation (drops or a population pinned at capacity) is discounted.
func fitness(meanPop float64, finalPop int, drops uint64, capacity int) float64 {
	if finalPop == 0 {
		return 0
	}

	// Occupancy peaks at half capacity.
	occupancy := meanPop / float64(capacity)
	score := 1 - math.Abs(occupancy-0.5)*2
	if score < 0 {
		score = 0
	}

	if drops > 0 {
		score *= 0.5
	}
	return score
}
