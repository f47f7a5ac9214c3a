package weather

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"skycast/internal/types"
)

// Aggregator fans a current-conditions request out to every configured
// provider and merges the responses into one consensus view. Individual
// provider failures degrade the result instead of failing it; aggregation
// errors out only when no provider responds at all.
type Aggregator struct {
	sources []types.WeatherSource
	timeout time.Duration
	clock   types.Clock
	logger  *slog.Logger
}

// NewAggregator builds an Aggregator over the given sources. A zero timeout
// defaults to 15 seconds for the whole fan-out.
func NewAggregator(sources []types.WeatherSource, timeout time.Duration, clock types.Clock, logger *slog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		sources: sources,
		timeout: timeout,
		clock:   clock,
		logger:  logger,
	}
}

// Aggregate queries all providers concurrently and merges the successful
// snapshots: numeric fields are arithmetic means, the description is the
// majority vote (first responder breaks ties), and TempDeviationC is the
// max-min spread across providers (zero when fewer than two responded).
func (a *Aggregator) Aggregate(ctx context.Context, lat, lon float64) (*types.AggregatedWeather, error) {
	if len(a.sources) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"no weather providers configured",
			nil,
		)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		mu        sync.Mutex
		snapshots = make(map[types.WeatherProvider]*types.WeatherSnapshot)
		failures  = make(map[types.WeatherProvider]string)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range a.sources {
		src := src
		g.Go(func() error {
			snap, err := src.Current(gctx, lat, lon)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Warn("provider failed during aggregation",
					slog.String("provider", string(src.Provider())),
					slog.String("error", err.Error()),
				)
				failures[src.Provider()] = err.Error()
				// Degrade instead of cancelling the sibling fetches.
				return nil
			}
			snapshots[src.Provider()] = snap
			return nil
		})
	}
	_ = g.Wait()

	if len(snapshots) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"all weather providers failed",
			nil,
		)
	}

	return a.merge(lat, lon, snapshots, failures), nil
}

func (a *Aggregator) merge(
	lat, lon float64,
	snapshots map[types.WeatherProvider]*types.WeatherSnapshot,
	failures map[types.WeatherProvider]string,
) *types.AggregatedWeather {
	agg := &types.AggregatedWeather{
		Location:    types.Location{Lat: lat, Lon: lon},
		GeneratedAt: a.clock.Now(),
		PerProvider: snapshots,
	}
	if len(failures) > 0 {
		agg.ProviderErrors = failures
	}

	// Iterate sources (not the map) so ordering is deterministic: the
	// configured provider order decides description ties.
	var (
		temps        []float64
		descriptions []string
	)
	for _, src := range a.sources {
		snap, ok := snapshots[src.Provider()]
		if !ok {
			continue
		}
		agg.ProvidersUsed = append(agg.ProvidersUsed, src.Provider())
		temps = append(temps, snap.TempC)
		agg.TempC += snap.TempC
		agg.Humidity += snap.Humidity
		agg.WindSpeed += snap.WindSpeed
		agg.CloudCover += snap.CloudCover
		if snap.Description != "" {
			descriptions = append(descriptions, snap.Description)
		}
	}

	n := float64(len(agg.ProvidersUsed))
	agg.TempC /= n
	agg.Humidity /= n
	agg.WindSpeed /= n
	agg.CloudCover /= n

	agg.Description = majorityDescription(descriptions)
	agg.TempDeviationC = spread(temps)

	return agg
}

// majorityDescription returns the most frequent description; the earliest
// occurrence wins ties. Empty input yields "No data available".
func majorityDescription(descriptions []string) string {
	if len(descriptions) == 0 {
		return "No data available"
	}

	counts := make(map[string]int, len(descriptions))
	best := descriptions[0]
	bestCount := 0
	for _, d := range descriptions {
		counts[d]++
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}

// spread returns max-min over the values, or zero for fewer than two.
func spread(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}
