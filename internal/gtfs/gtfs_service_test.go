package gtfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tubestats.onebusaway.org/internal/geo"
	"tubestats.onebusaway.org/internal/metrics"
	"tubestats.onebusaway.org/internal/models"
)

func newTestSource(source string) *Source {
	return NewSource(source, geo.CentralLondon, 2, NewStaticStore(), testLogger(), &http.Client{Timeout: 5 * time.Second})
}

func stopIDs(points []models.StopPoint) []string {
	ids := make([]string, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}
	return ids
}

func TestSourceLineIDs(t *testing.T) {
	src := newTestSource(writeLondonBundle(t))

	ids, err := src.LineIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"victoria", "central", "waterloo-city"}, ids, "only subway routes, in routes.txt order")
}

func TestSourceLineStopPoints(t *testing.T) {
	src := newTestSource(writeLondonBundle(t))
	ctx := context.Background()

	skippedBefore, err := metrics.CounterValue(metrics.SkippedStopPoints, map[string]string{"line": "victoria"})
	require.NoError(t, err)

	t.Run("Platforms roll up to stations in order of first visit", func(t *testing.T) {
		points, err := src.LineStopPoints(ctx, "victoria")
		require.NoError(t, err)
		require.Equal(t, []string{"BXN", "OXC"}, stopIDs(points))

		brixton, oxford := points[0], points[1]
		assert.Equal(t, "Brixton", brixton.Name)
		assert.Equal(t, 1, brixton.Connections)
		assert.InDelta(t, 5.258, brixton.Distance, 0.01)

		assert.Equal(t, "Oxford Circus", oxford.Name)
		assert.Equal(t, 2, oxford.Connections, "served by victoria and central; the bus stop is not part of the station")
		assert.Equal(t, "victoria", oxford.Line)
	})

	t.Run("Station at null island is skipped", func(t *testing.T) {
		skippedAfter, err := metrics.CounterValue(metrics.SkippedStopPoints, map[string]string{"line": "victoria"})
		require.NoError(t, err)
		assert.Equal(t, float64(1), skippedAfter-skippedBefore)
	})

	t.Run("Central line", func(t *testing.T) {
		points, err := src.LineStopPoints(ctx, "central")
		require.NoError(t, err)
		assert.Equal(t, []string{"OXC", "BNK"}, stopIDs(points))
		assert.Equal(t, 2, points[0].Connections)
		assert.Equal(t, 1, points[1].Connections)
	})

	t.Run("Line without trips", func(t *testing.T) {
		points, err := src.LineStopPoints(ctx, "waterloo-city")
		require.NoError(t, err)
		assert.Empty(t, points)
	})

	t.Run("Non-subway route", func(t *testing.T) {
		_, err := src.LineStopPoints(ctx, "bus-8")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no subway route "bus-8"`)
	})
}

func TestSourceLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeBundle(t, filepath.Join(dir, "old.zip"), []byte("not a zip"), now.Add(-time.Hour))
	writeBundle(t, filepath.Join(dir, "new.zip"), buildBundle(t, londonFixture), now)

	src := newTestSource(dir)
	ids, err := src.LineIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestSourceLoadFromURL(t *testing.T) {
	bundle := buildBundle(t, londonFixture)

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/zip")
			w.Write(bundle)
		}))
		defer srv.Close()

		src := newTestSource(srv.URL + "/gtfs.zip")
		require.NoError(t, src.Load(context.Background()))

		data, ok := src.StaticStore.Get(srv.URL + "/gtfs.zip")
		require.True(t, ok)
		assert.Len(t, data.Routes, 4)
	})

	t.Run("Not found", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		src := newTestSource(srv.URL + "/missing.zip")
		err := src.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected response status 404")
	})
}

func TestSourceLoadErrors(t *testing.T) {
	t.Run("Missing path", func(t *testing.T) {
		src := newTestSource(filepath.Join(t.TempDir(), "absent.zip"))
		_, err := src.LineIDs(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to stat GTFS bundle")
	})

	t.Run("Empty directory", func(t *testing.T) {
		src := newTestSource(t.TempDir())
		_, err := src.LineIDs(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to find a GTFS bundle")
	})

	t.Run("Bundle without trips.txt", func(t *testing.T) {
		files := make(map[string]string, len(londonFixture))
		for name, content := range londonFixture {
			if name != "trips.txt" {
				files[name] = content
			}
		}
		path := filepath.Join(t.TempDir(), "broken.zip")
		writeBundle(t, path, buildBundle(t, files), time.Now())

		src := newTestSource(path)
		err := src.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse GTFS static data")
	})
}

func TestSourceUsesStaticStore(t *testing.T) {
	store := NewStaticStore()
	store.Set("preloaded", &models.StaticData{})

	src := NewSource("preloaded", geo.CentralLondon, 0, store, testLogger(), http.DefaultClient)
	ids, err := src.LineIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGetEarliestAndLatestServiceDates(t *testing.T) {
	data, err := parseGTFSBundle(buildBundle(t, londonFixture), "london.zip")
	require.NoError(t, err)

	earliest, latest, err := getEarliestAndLatestServiceDates(data)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-30", earliest.Format("2006-01-02"))
	assert.Equal(t, "2024-12-31", latest.Format("2006-01-02"))

	_, _, err = getEarliestAndLatestServiceDates(&models.StaticData{})
	assert.Error(t, err)

	_, _, err = getEarliestAndLatestServiceDates(nil)
	assert.Error(t, err)
}
