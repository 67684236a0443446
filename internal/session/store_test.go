package session

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datainsights/internal/pipeline"
	apiv1 "datainsights/pkg/contracts/api/v1"
	"datainsights/pkg/contracts/domain"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s := NewStore(ttl, time.Hour, slog.Default())
	t.Cleanup(s.Close)
	return s
}

func testData() *domain.ProcessedData {
	return &domain.ProcessedData{
		Series: []*domain.Series{
			{
				Name:    "ValA",
				XValues: []int{0, 30},
				YValues: []*float64{floatPtr(10), floatPtr(15)},
				Defined: []bool{true, true},
				Visible: true,
			},
		},
		Statistics: &domain.Statistics{
			Timeline: []int{0, 30},
			P10:      []*float64{floatPtr(10), floatPtr(15)},
			P50:      []*float64{floatPtr(10), floatPtr(15)},
			P90:      []*float64{floatPtr(10), floatPtr(15)},
			Mean:     []*float64{floatPtr(10), floatPtr(15)},
			Count:    []int{1, 1},
		},
		OriginalFilename: "wells.csv",
		CreatedAt:        time.Now(),
	}
}

func TestCreateAssignsDistinctIDs(t *testing.T) {
	s := newTestStore(t, time.Hour)

	id1 := s.Create(testData())
	id2 := s.Create(testData())

	assert.NotEqual(t, id1, id2)

	got1, err := s.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, id1, got1.SessionID)

	got2, err := s.Get(id2)
	require.NoError(t, err)
	assert.Equal(t, id2, got2.SessionID)
}

func TestGetUnknownSession(t *testing.T) {
	s := newTestStore(t, time.Hour)

	_, err := s.Get("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReturnsIsolatedSnapshot(t *testing.T) {
	s := newTestStore(t, time.Hour)
	id := s.Create(testData())

	snapshot, err := s.Get(id)
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the store
	snapshot.Series[0].Visible = false
	snapshot.Series[0].Color = "#000000"

	fresh, err := s.Get(id)
	require.NoError(t, err)
	assert.True(t, fresh.Series[0].Visible)
	assert.Empty(t, fresh.Series[0].Color)
}

func TestUpdateSeries(t *testing.T) {
	s := newTestStore(t, time.Hour)
	id := s.Create(testData())

	err := s.UpdateSeries(id, "ValA", apiv1.SeriesPatchRequest{
		Visible: boolPtr(false),
		Color:   "#ff0000",
	})
	require.NoError(t, err)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.False(t, got.Series[0].Visible)
	assert.Equal(t, "#ff0000", got.Series[0].Color)
}

func TestUpdateSeriesUnknownName(t *testing.T) {
	s := newTestStore(t, time.Hour)
	id := s.Create(testData())

	err := s.UpdateSeries(id, "Nope", apiv1.SeriesPatchRequest{Visible: boolPtr(false)})
	assert.ErrorIs(t, err, ErrSeriesNotFound)
}

func TestUpdateSeriesDoesNotAffectHeldSnapshot(t *testing.T) {
	s := newTestStore(t, time.Hour)
	id := s.Create(testData())

	snapshot, err := s.Get(id)
	require.NoError(t, err)

	require.NoError(t, s.UpdateSeries(id, "ValA", apiv1.SeriesPatchRequest{Visible: boolPtr(false)}))

	assert.True(t, snapshot.Series[0].Visible)
}

func TestDeleteThenOperationsReturnNotFound(t *testing.T) {
	s := newTestStore(t, time.Hour)
	id := s.Create(testData())

	require.NoError(t, s.Delete(id))

	_, err := s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateSeries(id, "ValA", apiv1.SeriesPatchRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Status(id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(id), ErrNotFound)
}

func TestExpiredSessionBehavesLikeMissing(t *testing.T) {
	s := newTestStore(t, 10*time.Millisecond)
	id := s.Create(testData())

	time.Sleep(30 * time.Millisecond)

	_, err := s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	s := NewStore(10*time.Millisecond, 20*time.Millisecond, slog.Default())
	t.Cleanup(s.Close)

	s.Create(testData())
	require.Equal(t, 1, s.Len())

	assert.Eventually(t, func() bool {
		return s.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStatus(t *testing.T) {
	s := newTestStore(t, time.Hour)
	id := s.Create(testData())

	status, err := s.Status(id)
	require.NoError(t, err)

	assert.Equal(t, id, status.SessionID)
	assert.Equal(t, pipeline.StateReady, status.State)
	assert.Equal(t, "wells.csv", status.OriginalFilename)
	assert.Equal(t, 1, status.SeriesCount)
	assert.Equal(t, 2, status.TotalRows)
	assert.True(t, status.ExpiresAt.After(status.CreatedAt))
}

func TestSetState(t *testing.T) {
	s := newTestStore(t, time.Hour)
	id := s.Create(testData())

	require.NoError(t, s.SetState(id, pipeline.StateGenerating))
	require.NoError(t, s.SetState(id, pipeline.StateReady))

	// Ready cannot jump back to uploading
	assert.Error(t, s.SetState(id, pipeline.StateUploading))
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	s := newTestStore(t, time.Hour)
	id := s.Create(testData())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.UpdateSeries(id, "ValA", apiv1.SeriesPatchRequest{Visible: boolPtr(true)})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get(id)
		}()
	}
	wg.Wait()

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Len(t, got.Series[0].XValues, 2)
}
