package session

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/validation"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.Gauge.GetValue()
}

func TestStore_CreateGetDelete(t *testing.T) {
	st, reg := newTestStore(t, Options{})

	s, err := st.Create(louvain.SampleGraph())
	require.NoError(t, err)
	assert.Len(t, s.ID(), 36)

	got, err := st.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1.0, gaugeValue(t, reg.SessionsActive))

	require.NoError(t, st.Delete(s.ID()))
	_, err = st.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, st.Delete(s.ID()), ErrSessionNotFound)
	assert.Equal(t, 0.0, gaugeValue(t, reg.SessionsActive))
	assert.Equal(t, 1.0, counterValue(t, reg.SessionsCreatedTotal))
}

func TestStore_CreateRejectsBadGraphs(t *testing.T) {
	st, _ := newTestStore(t, Options{MaxNodes: 4})

	_, err := st.Create(louvain.SampleGraph())
	assert.ErrorIs(t, err, validation.ErrInvalidRequest, "six nodes exceed the limit of four")

	_, err = st.Create(&louvain.Graph{
		Nodes: []louvain.Node{{ID: "A"}},
		Edges: []louvain.Edge{{Source: "A", Target: "Z"}},
	})
	assert.ErrorIs(t, err, louvain.ErrUnknownNode)

	zero := 0.0
	_, err = st.Create(&louvain.Graph{
		Edges: []louvain.Edge{{Source: "A", Target: "B", Weight: &zero}},
	})
	assert.ErrorIs(t, err, louvain.ErrNoEdges)
	assert.Equal(t, 0, st.Len())
}

func TestStore_MaxSessions(t *testing.T) {
	st, _ := newTestStore(t, Options{MaxSessions: 2})

	for i := 0; i < 2; i++ {
		_, err := st.Create(louvain.SampleGraph())
		require.NoError(t, err)
	}
	_, err := st.Create(louvain.SampleGraph())
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestStore_ListOrder(t *testing.T) {
	st, _ := newTestStore(t, Options{})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		st.now = func() time.Time { return at }
		s, err := st.Create(louvain.SampleGraph())
		require.NoError(t, err)
		ids = append(ids, s.ID())
	}

	list := st.List()
	require.Len(t, list, 3)
	for i, sum := range list {
		assert.Equal(t, ids[i], sum.ID)
		assert.Equal(t, 6, sum.Nodes)
		assert.Equal(t, "computing_gains", sum.Phase)
	}
}

func TestStore_Sweep(t *testing.T) {
	st, reg := newTestStore(t, Options{TTL: 10 * time.Minute})
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	st.now = func() time.Time { return base }
	idle, err := st.Create(louvain.SampleGraph())
	require.NoError(t, err)
	busy, err := st.Create(louvain.SampleGraph())
	require.NoError(t, err)

	// Using a session refreshes its idle clock
	st.now = func() time.Time { return base.Add(8 * time.Minute) }
	_, err = st.Get(busy.ID())
	require.NoError(t, err)

	assert.Equal(t, 0, st.Sweep(base.Add(9*time.Minute)))
	assert.Equal(t, 1, st.Sweep(base.Add(11*time.Minute)))

	_, err = st.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Get(busy.ID())
	assert.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, reg.SessionsExpiredTotal))
}

func TestStore_SweepWithoutTTL(t *testing.T) {
	st, _ := newTestStore(t, Options{})
	_, err := st.Create(louvain.SampleGraph())
	require.NoError(t, err)
	assert.Equal(t, 0, st.Sweep(time.Now().Add(24*time.Hour)))
}
