package montecarlo

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/exp/rand"

	"github.com/akoiralaa/options-pricer/models"
)

const (
	DefaultNumPaths        = 10000
	DefaultNumSteps        = 252 // trading days in a year
	DefaultChunkSize       = 2048
	DefaultConfidenceLevel = 0.95
)

// Config controls one simulation run. Zero-valued Workers, ChunkSize and
// ConfidenceLevel take their defaults; NumPaths and NumSteps are required.
type Config struct {
	NumPaths int
	NumSteps int
	// Seed makes the run reproducible. A nil seed is drawn from the clock.
	Seed *uint64
	// Workers bounds the number of goroutines simulating chunks.
	Workers int
	// ChunkSize is the number of paths sharing one generator. Results depend
	// on it, so it must be held fixed for runs that should reproduce.
	ChunkSize       int
	ConfidenceLevel float64
	// Progress, if set, receives the running total of completed paths after
	// each chunk. Calls are serialized.
	Progress func(completed int)
}

// Seed returns a pointer to v, for Config.Seed.
func Seed(v uint64) *uint64 {
	return &v
}

func DefaultConfig() Config {
	return Config{
		NumPaths:        DefaultNumPaths,
		NumSteps:        DefaultNumSteps,
		Workers:         runtime.GOMAXPROCS(0),
		ChunkSize:       DefaultChunkSize,
		ConfidenceLevel: DefaultConfidenceLevel,
	}
}

func (c Config) Validate() error {
	if c.NumPaths <= 0 {
		return fmt.Errorf("%w: number of paths must be positive, got %d", models.ErrSimulationConfig, c.NumPaths)
	}
	if c.NumSteps <= 0 {
		return fmt.Errorf("%w: number of steps must be positive, got %d", models.ErrSimulationConfig, c.NumSteps)
	}
	if c.ConfidenceLevel != 0 && !(c.ConfidenceLevel > 0 && c.ConfidenceLevel < 1) {
		return fmt.Errorf("%w: confidence level must be in (0, 1), got %g", models.ErrSimulationConfig, c.ConfidenceLevel)
	}
	return nil
}

func (c Config) withDefaults() (Config, error) {
	if err := c.Validate(); err != nil {
		return c, err
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ConfidenceLevel == 0 {
		c.ConfidenceLevel = DefaultConfidenceLevel
	}
	if c.Seed == nil {
		c.Seed = Seed(uint64(time.Now().UnixNano()))
		glog.V(1).Infof("no seed supplied, using %d", *c.Seed)
	}
	return c, nil
}

// run is one prepared simulation: validated inputs plus the generator seed
// of every chunk.
type run struct {
	spec  models.ContractSpec
	cfg   Config
	step  gbmStep
	seeds []uint64
}

func newRun(spec models.ContractSpec, cfg Config) (*run, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	numChunks := (cfg.NumPaths + cfg.ChunkSize - 1) / cfg.ChunkSize
	master := rand.New(rand.NewSource(*cfg.Seed))
	seeds := make([]uint64, numChunks)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	return &run{
		spec:  spec,
		cfg:   cfg,
		step:  newGBMStep(spec, cfg.NumSteps),
		seeds: seeds,
	}, nil
}

// bounds returns the half-open path index range of chunk i.
func (r *run) bounds(i int) (int, int) {
	start := i * r.cfg.ChunkSize
	end := start + r.cfg.ChunkSize
	if end > r.cfg.NumPaths {
		end = r.cfg.NumPaths
	}
	return start, end
}

// forEachChunk runs work once per chunk on a bounded pool of workers. Each
// chunk gets its own generator, so the outcome of work(i, ...) does not
// depend on which worker runs it or when.
func (r *run) forEachChunk(work func(chunk int, rng *rand.Rand)) {
	numChunks := len(r.seeds)
	workers := r.cfg.Workers
	if workers > numChunks {
		workers = numChunks
	}
	glog.V(1).Infof("simulating %d paths x %d steps in %d chunks on %d workers", r.cfg.NumPaths, r.cfg.NumSteps, numChunks, workers)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				work(i, rand.New(rand.NewSource(r.seeds[i])))

				if r.cfg.Progress != nil {
					start, end := r.bounds(i)
					mu.Lock()
					completed += end - start
					r.cfg.Progress(completed)
					mu.Unlock()
				}
			}
		}()
	}

	for i := 0; i < numChunks; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// Price estimates the discounted expected payoff by streaming each path
// through a running summary, so memory does not grow with NumSteps.
func Price(spec models.ContractSpec, payoff models.PayoffSpec, cfg Config) (models.SimulationResult, error) {
	value, err := newPayoff(spec, payoff)
	if err != nil {
		return models.SimulationResult{}, err
	}
	r, err := newRun(spec, cfg)
	if err != nil {
		return models.SimulationResult{}, err
	}

	accs := make([]accumulator, len(r.seeds))
	r.forEachChunk(func(i int, rng *rand.Rand) {
		start, end := r.bounds(i)
		acc := &accs[i]
		for p := start; p < end; p++ {
			var stats pathStats
			r.step.walk(spec.Spot, r.cfg.NumSteps, rng, stats.observe)
			acc.add(value(stats))
		}
	})

	var total accumulator
	for _, acc := range accs {
		total.merge(acc)
	}
	return total.result(spec.DiscountFactor(), r.cfg.ConfidenceLevel), nil
}

// Simulate materializes cfg.NumPaths paths of cfg.NumSteps+1 prices each,
// spot first. Paths are identical to the ones Price streams for the same
// seed and chunk size.
func Simulate(spec models.ContractSpec, cfg Config) ([]models.SimulatedPath, error) {
	r, err := newRun(spec, cfg)
	if err != nil {
		return nil, err
	}

	paths := make([]models.SimulatedPath, r.cfg.NumPaths)
	r.forEachChunk(func(i int, rng *rand.Rand) {
		start, end := r.bounds(i)
		for p := start; p < end; p++ {
			path := make(models.SimulatedPath, 0, r.cfg.NumSteps+1)
			r.step.walk(spec.Spot, r.cfg.NumSteps, rng, func(price float64) {
				path = append(path, price)
			})
			paths[p] = path
		}
	})
	return paths, nil
}
