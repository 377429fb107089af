package analytics

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultChartInterval is how often the admin chart is refreshed
const DefaultChartInterval = 30 * time.Second

// chartJitter bounds the per-refresh change of each point
const chartJitter = 3

// Dataset is one series of the admin activity chart
type Dataset struct {
	Label      string    `json:"label"`
	Data       []float64 `json:"data"`
	LightColor string    `json:"light_color"`
	DarkColor  string    `json:"dark_color"`
	Mean       float64   `json:"mean"`
	StdDev     float64   `json:"std_dev"`
	Max        float64   `json:"max"`
}

// Chart is a snapshot of the admin activity chart
type Chart struct {
	Labels    []string  `json:"labels"`
	Datasets  []Dataset `json:"datasets"`
	UpdatedAt time.Time `json:"updated_at"`
}

func seedChart() Chart {
	return Chart{
		Labels: []string{"00:00", "04:00", "08:00", "12:00", "16:00", "20:00", "24:00"},
		Datasets: []Dataset{
			{Label: "Normal Activities", Data: []float64{12, 8, 25, 45, 38, 22, 15}, LightColor: "#059669", DarkColor: "#10B981"},
			{Label: "Suspicious Activities", Data: []float64{2, 1, 5, 8, 6, 3, 2}, LightColor: "#D97706", DarkColor: "#F59E0B"},
			{Label: "Security Threats", Data: []float64{0, 0, 2, 3, 1, 0, 1}, LightColor: "#DC2626", DarkColor: "#EF4444"},
		},
	}
}

// ChartGenerator owns the admin chart and walks it randomly on refresh
type ChartGenerator struct {
	mu     sync.RWMutex
	chart  Chart // Protected by mu
	jitter distuv.Uniform
	clock  func() time.Time
}

// NewChartGenerator creates a generator seeded with the initial series.
// A nil src draws from the global generator.
func NewChartGenerator(src rand.Source, clock func() time.Time) *ChartGenerator {
	if clock == nil {
		clock = time.Now
	}
	g := &ChartGenerator{
		chart:  seedChart(),
		jitter: distuv.Uniform{Min: -chartJitter, Max: chartJitter, Src: src},
		clock:  clock,
	}
	g.chart.UpdatedAt = clock().UTC()
	for i := range g.chart.Datasets {
		summarize(&g.chart.Datasets[i])
	}
	return g
}

// Current returns a copy of the chart
func (g *ChartGenerator) Current() Chart {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.chart.clone()
}

// Refresh moves every point by a random step of at most three, rounds it
// and clamps it at zero
func (g *ChartGenerator) Refresh() Chart {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.chart.Datasets {
		ds := &g.chart.Datasets[i]
		for j, v := range ds.Data {
			ds.Data[j] = math.Max(0, math.Round(v+g.jitter.Rand()))
		}
		summarize(ds)
	}
	g.chart.UpdatedAt = g.clock().UTC()
	return g.chart.clone()
}

// Run refreshes the chart every interval and hands each snapshot to publish
// until ctx is done
func (g *ChartGenerator) Run(ctx context.Context, interval time.Duration, publish func(Chart)) {
	if interval <= 0 {
		interval = DefaultChartInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c := g.Refresh()
			if publish != nil {
				publish(c)
			}
		}
	}
}

func summarize(ds *Dataset) {
	if len(ds.Data) == 0 {
		ds.Mean, ds.StdDev, ds.Max = 0, 0, 0
		return
	}
	ds.Mean = round2(stat.Mean(ds.Data, nil))
	ds.StdDev = 0
	if len(ds.Data) > 1 {
		ds.StdDev = round2(stat.StdDev(ds.Data, nil))
	}
	ds.Max = floats.Max(ds.Data)
}

func (c Chart) clone() Chart {
	out := Chart{
		Labels:    append([]string(nil), c.Labels...),
		Datasets:  make([]Dataset, len(c.Datasets)),
		UpdatedAt: c.UpdatedAt,
	}
	for i, ds := range c.Datasets {
		ds.Data = append([]float64(nil), ds.Data...)
		out.Datasets[i] = ds
	}
	return out
}
