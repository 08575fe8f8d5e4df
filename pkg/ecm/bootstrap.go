// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"enetvar/pkg/coorddescent"
	"enetvar/pkg/simulate"
	"enetvar/pkg/varutil"
)

// BootstrapOptions configures BootstrapIRF.
type BootstrapOptions struct {
	// Number of bootstrap replications (e.g. 200-1000)
	NReplications int
	// Horizon for IRFs (h = 0, ..., Horizon-1)
	Horizon int
	// Significance level (e.g. 0.05 for 95% bands)
	Alpha float64
	// RNG seed
	Seed uint64
	// Worker goroutines, 0 means runtime.NumCPU()
	Workers int
}

// IRFBand holds the point IRF for one shock and its bootstrap bands, all
// horizon x n.
type IRFBand struct {
	ShockIndex int
	Point      *mat.Dense
	Lower      *mat.Dense
	Upper      *mat.Dense
}

// irfReplication holds the IRFs of every shock from one replication.
type irfReplication struct {
	irfs []*mat.Dense
	err  error
}

// BootstrapIRF builds parametric bootstrap bands for the IRFs of every
// shock. Each replication simulates a series of length T from (Psi, Sigma)
// and refits it with the elastic-net coordinate-descent estimator.
// The bands describe the sampling spread of that estimator, which is the
// ECM initializer, not of the ECM fit itself.
func (r *Result) BootstrapIRF(opts BootstrapOptions) (map[int]*IRFBand, error) {
	K, p := r.Dims()
	if K == 0 {
		return nil, ErrNotEstimated
	}

	// Default options if not set
	if opts.NReplications <= 0 {
		opts.NReplications = 500
	}
	if opts.Horizon <= 0 {
		opts.Horizon = 12
	}
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = 0.05
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Workers > opts.NReplications {
		opts.Workers = opts.NReplications
	}
	if r.T <= p {
		return nil, fmt.Errorf("%w: T = %d, p = %d", ErrTooShort, r.T, p)
	}
	H := opts.Horizon

	// 1. Point estimates
	results := make(map[int]*IRFBand, K)
	for shockIdx := 0; shockIdx < K; shockIdx++ {
		point, err := r.IRF(H, shockIdx)
		if err != nil {
			return nil, fmt.Errorf("IRF failed for shock %d on fitted model: %w", shockIdx, err)
		}
		results[shockIdx] = &IRFBand{
			ShockIndex: shockIdx,
			Point:      point,
			Lower:      mat.NewDense(H, K, nil),
			Upper:      mat.NewDense(H, K, nil),
		}
	}

	// 2. Per-replication seeds so no RNG is shared across goroutines
	master := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x2545f4914f6cdd1d))
	seeds := make([]uint64, opts.NReplications)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	// 3. Worker pool
	jobs := make(chan int)
	repCh := make(chan irfReplication, opts.NReplications)

	var wg sync.WaitGroup
	wg.Add(opts.Workers)
	for w := 0; w < opts.Workers; w++ {
		go func() {
			defer wg.Done()
			for b := range jobs {
				irfs, err := r.replicateIRF(H, seeds[b])
				if err != nil {
					err = fmt.Errorf("bootstrap %d: %w", b, err)
				}
				repCh <- irfReplication{irfs: irfs, err: err}
			}
		}()
	}

	go func() {
		for b := 0; b < opts.NReplications; b++ {
			jobs <- b
		}
		close(jobs)
	}()

	// 4. Collect samples: [shock][h][j] -> draws
	samples := make([][][][]float64, K)
	for s := range samples {
		samples[s] = make([][][]float64, H)
		for h := range samples[s] {
			samples[s][h] = make([][]float64, K)
		}
	}
	var firstErr error
	for i := 0; i < opts.NReplications; i++ {
		rep := <-repCh
		if rep.err != nil {
			if firstErr == nil {
				firstErr = rep.err
			}
			continue
		}
		for s, irf := range rep.irfs {
			for h := 0; h < H; h++ {
				for j := 0; j < K; j++ {
					samples[s][h][j] = append(samples[s][h][j], irf.At(h, j))
				}
			}
		}
	}
	wg.Wait()
	close(repCh)

	if firstErr != nil {
		return nil, firstErr
	}

	// 5. Percentile bands
	lowerQ := opts.Alpha / 2.0
	upperQ := 1.0 - opts.Alpha/2.0
	for s, band := range results {
		for h := 0; h < H; h++ {
			for j := 0; j < K; j++ {
				band.Lower.Set(h, j, bootstrapQuantile(samples[s][h][j], lowerQ))
				band.Upper.Set(h, j, bootstrapQuantile(samples[s][h][j], upperQ))
			}
		}
	}
	return results, nil
}

// replicateIRF simulates one series from the fitted model, refits it and
// returns the IRF of every shock.
func (r *Result) replicateIRF(H int, seed uint64) ([]*mat.Dense, error) {
	spec := r.Spec
	Y, err := simulate.VAR(r.Psi, r.Sigma, r.T, 100, seed)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	Yt, X, err := varutil.Lag(Y, spec.Lags)
	if err != nil {
		return nil, err
	}
	Psi, Sigma, err := coorddescent.Estimate(Yt, X, spec.Lambda, spec.Alpha, spec.Beta, spec.Tol, spec.MaxIter)
	if err != nil {
		return nil, fmt.Errorf("refit: %w", err)
	}

	boot := &Result{Spec: spec, Psi: Psi, Sigma: Sigma, T: r.T}
	K, _ := boot.Dims()
	irfs := make([]*mat.Dense, K)
	for s := 0; s < K; s++ {
		if irfs[s], err = boot.IRF(H, s); err != nil {
			return nil, err
		}
	}
	return irfs, nil
}

// bootstrapQuantile returns the empirical q-quantile of samples
// (0 <= q <= 1), interpolating linearly between order statistics at
// position q(n-1).
func bootstrapQuantile(samples []float64, q float64) float64 {
	n := len(samples)
	if n == 0 {
		return math.NaN()
	}
	tmp := make([]float64, n)
	copy(tmp, samples)
	sort.Float64s(tmp)

	switch {
	case q <= 0:
		return tmp[0]
	case q >= 1:
		return tmp[n-1]
	}
	pos := q * float64(n-1)
	below := int(math.Floor(pos))
	w := pos - float64(below)
	if w == 0 {
		return tmp[below]
	}
	return tmp[below]*(1-w) + tmp[below+1]*w
}
