package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/golang/glog"

	"github.com/akoiralaa/options-pricer/models"
)

const ladderBatchSize = 64

// LadderRow is the call and put valuation of one strike.
type LadderRow struct {
	Strike      float64                  `json:"strike"`
	Call        models.BSMResult         `json:"call"`
	Put         models.BSMResult         `json:"put"`
	HigherOrder models.HigherOrderGreeks `json:"higher_order"`
	// CallImpliedVol is filled when the ladder is priced against market quotes.
	CallImpliedVol      *models.ImpliedVolResult `json:"call_implied_vol,omitempty"`
	CallImpliedVolError string                   `json:"call_implied_vol_error,omitempty"`
}

type ladderJob struct {
	index  int
	strike float64
	quote  float64
}

type ladderResult struct {
	index int
	row   LadderRow
	err   error
}

// PriceLadder values spec at every strike, replacing spec.Strike, on a pool
// of workers. Rows come back in ascending strike order. progress, if not nil,
// is called once per finished strike.
func (e *Engine) PriceLadder(spec models.ContractSpec, strikes []float64, workers int, progress func()) ([]LadderRow, error) {
	return e.priceLadder(spec, strikes, nil, workers, progress)
}

// PriceQuotedLadder additionally recovers the implied volatility of each
// quoted call price; quotes[i] belongs to strikes[i].
func (e *Engine) PriceQuotedLadder(spec models.ContractSpec, strikes, quotes []float64, workers int, progress func()) ([]LadderRow, error) {
	if len(quotes) != len(strikes) {
		return nil, fmt.Errorf("%w: %d quotes for %d strikes", models.ErrInvalidInput, len(quotes), len(strikes))
	}
	return e.priceLadder(spec, strikes, quotes, workers, progress)
}

func (e *Engine) priceLadder(spec models.ContractSpec, strikes, quotes []float64, workers int, progress func()) ([]LadderRow, error) {
	if len(strikes) == 0 {
		return nil, fmt.Errorf("%w: no strikes to price", models.ErrInvalidInput)
	}
	if workers <= 0 {
		workers = e.simulation.Workers
	}
	if workers <= 0 || workers > len(strikes) {
		workers = len(strikes)
	}
	glog.V(1).Infof("pricing %d strikes on %d workers", len(strikes), workers)

	if progress != nil {
		var mu sync.Mutex
		report := progress
		progress = func() {
			mu.Lock()
			defer mu.Unlock()
			report()
		}
	}

	jobs := make(chan ladderJob, ladderBatchSize)
	results := make(chan ladderResult, ladderBatchSize)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go e.ladderWorker(spec, jobs, results, &wg, progress)
	}

	go func() {
		for i, strike := range strikes {
			job := ladderJob{index: i, strike: strike}
			if quotes != nil {
				job.quote = quotes[i]
			}
			jobs <- job
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	rows := make([]LadderRow, len(strikes))
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("strike %g: %w", strikes[res.index], res.err)
			}
			continue
		}
		rows[res.index] = res.row
	}
	if firstErr != nil {
		return nil, firstErr
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Strike < rows[j].Strike
	})
	return rows, nil
}

func (e *Engine) ladderWorker(spec models.ContractSpec, jobs <-chan ladderJob, results chan<- ladderResult, wg *sync.WaitGroup, progress func()) {
	defer wg.Done()
	for j := range jobs {
		row, err := e.priceStrike(spec, j)
		results <- ladderResult{index: j.index, row: row, err: err}

		if progress != nil {
			progress()
		}
	}
}

func (e *Engine) priceStrike(spec models.ContractSpec, j ladderJob) (LadderRow, error) {
	spec.Strike = j.strike

	call, err := e.PriceEuropean(spec, models.Call)
	if err != nil {
		return LadderRow{}, err
	}
	put, err := e.PriceEuropean(spec, models.Put)
	if err != nil {
		return LadderRow{}, err
	}
	higher, err := e.HigherOrderGreeks(spec, models.Call)
	if err != nil {
		return LadderRow{}, err
	}

	row := LadderRow{Strike: j.strike, Call: call, Put: put, HigherOrder: higher}
	if j.quote > 0 {
		// A failed solve does not fail the ladder; the row carries the reason.
		iv, err := e.ImpliedVolatility(spec, j.quote, models.Call)
		row.CallImpliedVol = &iv
		if err != nil {
			row.CallImpliedVolError = err.Error()
		}
	}
	return row, nil
}
