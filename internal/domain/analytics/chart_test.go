package analytics

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartSeed(t *testing.T) {
	g := NewChartGenerator(rand.NewPCG(1, 2), func() time.Time { return testNow })
	c := g.Current()

	assert.Equal(t, []string{"00:00", "04:00", "08:00", "12:00", "16:00", "20:00", "24:00"}, c.Labels)
	require.Len(t, c.Datasets, 3)

	normal := c.Datasets[0]
	assert.Equal(t, "Normal Activities", normal.Label)
	assert.Equal(t, []float64{12, 8, 25, 45, 38, 22, 15}, normal.Data)
	assert.Equal(t, 23.57, normal.Mean)
	assert.Equal(t, 45.0, normal.Max)
	assert.Greater(t, normal.StdDev, 0.0)

	assert.Equal(t, "Security Threats", c.Datasets[2].Label)
	assert.Equal(t, 3.0, c.Datasets[2].Max)
	assert.Equal(t, testNow, c.UpdatedAt)
}

func TestChartRefreshBounds(t *testing.T) {
	g := NewChartGenerator(rand.NewPCG(7, 11), nil)

	prev := g.Current()
	for round := 0; round < 50; round++ {
		next := g.Refresh()
		for i, ds := range next.Datasets {
			for j, v := range ds.Data {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.Equal(t, math.Round(v), v)
				assert.LessOrEqual(t, math.Abs(v-prev.Datasets[i].Data[j]), 3.0)
			}
		}
		prev = next
	}
}

func TestChartCurrentIsCopy(t *testing.T) {
	g := NewChartGenerator(rand.NewPCG(1, 1), nil)
	c := g.Current()
	c.Datasets[0].Data[0] = 999
	c.Labels[0] = "x"

	again := g.Current()
	assert.Equal(t, 12.0, again.Datasets[0].Data[0])
	assert.Equal(t, "00:00", again.Labels[0])
}

func TestChartRunPublishes(t *testing.T) {
	g := NewChartGenerator(rand.NewPCG(3, 4), nil)
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan Chart, 1)
	done := make(chan struct{})
	go func() {
		g.Run(ctx, 5*time.Millisecond, func(c Chart) {
			select {
			case got <- c:
			default:
			}
		})
		close(done)
	}()

	select {
	case c := <-got:
		assert.Len(t, c.Datasets, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("chart was never published")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
