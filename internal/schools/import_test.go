package schools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightmatch/internal/logging"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

func TestExtractCityAndState(t *testing.T) {
	tests := []struct {
		in, city, state string
	}{
		{"Austin, TX 78701", "Austin", "TX"},
		{"  San Diego ,  CA", "San Diego", "CA"},
		{"Nowhere", "Nowhere", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.city, ExtractCity(tt.in), tt.in)
		assert.Equal(t, tt.state, ExtractState(tt.in), tt.in)
	}
}

func TestTransform_ObjectLocation(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "school-001",
		"name": "SkyHigh Academy",
		"location": {"city": "San Diego", "state": "CA", "zipCode": "92101", "coordinates": {"lat": 32.7157, "lon": -117.1611}},
		"programs": ["PPL", "IR"],
		"costBand": {"min": 12000, "max": 16000},
		"trainingType": "Part141",
		"trustTier": "PREMIER",
		"instructorCount": 12,
		"rating": {"score": 4.7, "count": 88},
		"imageUrl": "https://img/1.jpg",
		"fleetDetails": [{"aircraftType": "C172", "count": 6}, {"aircraftType": "PA-28", "count": 4}]
	}`)

	s, err := Transform(raw, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "school-001", s.SchoolID)
	assert.Equal(t, "CA", s.State)
	assert.Equal(t, "San Diego", s.City)
	assert.Equal(t, "92101", s.ZipCode)
	require.NotNil(t, s.Coordinates)
	assert.Equal(t, 32.7157, *s.Coordinates.Lat)
	assert.Equal(t, 12000.0, s.MinCost())
	assert.Equal(t, 88.0, s.ReviewCount)
	assert.Equal(t, 4.7, s.AvgRating)
	assert.Equal(t, "https://img/1.jpg", s.HeroImageURL)
	assert.Equal(t, 10.0, s.FleetSize)
	assert.Equal(t, 12, *s.InstructorCount)
	assert.Equal(t, "2026-03-04T05:06:07.890Z", s.CreatedAt)
	assert.Equal(t, s.CreatedAt, s.UpdatedAt)

	assert.NotNil(t, s.Facilities)
	assert.NotNil(t, s.Instructors)
	assert.NotNil(t, s.ProgramDetails)
	assert.NotNil(t, s.Reviews)
}

func TestTransform_StringLocationAndOverrides(t *testing.T) {
	raw := json.RawMessage(`{
		"schoolId": "school-002",
		"name": "Lone Star Flight",
		"location": "Austin, TX 78701",
		"reviewCount": 12,
		"avgRating": 4.1,
		"rating": {"score": 2.0, "count": 3},
		"heroImageUrl": "hero.jpg",
		"imageUrl": "fallback.jpg",
		"fleetSize": 3,
		"fleetDetails": [{"aircraftType": "C152", "count": 9}]
	}`)

	s, err := Transform(raw, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "school-002", s.SchoolID)
	assert.Equal(t, "Austin", s.City)
	assert.Equal(t, "TX", s.State)
	assert.Equal(t, 12.0, s.ReviewCount)
	assert.Equal(t, 4.1, s.AvgRating)
	assert.Equal(t, "hero.jpg", s.HeroImageURL)
	assert.Equal(t, 3.0, s.FleetSize)
	assert.Equal(t, []string{}, s.Programs)
}

func TestTransform_Errors(t *testing.T) {
	_, err := Transform(json.RawMessage(`{"name":"No ID"}`), fixedNow)
	assert.ErrorIs(t, err, errMissingID)

	_, err = Transform(json.RawMessage(`[1,2]`), fixedNow)
	assert.Error(t, err)

	_, err = Transform(json.RawMessage(`{"id":"x","location":42}`), fixedNow)
	assert.ErrorContains(t, err, "location")
}

func TestSplitSource(t *testing.T) {
	recs, err := SplitSource([]byte(`[{"id":"a"},{"id":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = SplitSource([]byte(`{"id":"a"}`))
	assert.Error(t, err)
}

type fakePutter struct {
	calls int
	got   []School
	res   *BatchResult
	err   error
}

func (f *fakePutter) PutBatch(_ context.Context, schools []School) (BatchResult, error) {
	f.calls++
	f.got = schools
	if f.res != nil {
		return *f.res, f.err
	}
	return BatchResult{Written: len(schools)}, f.err
}

func testLogger(buf *bytes.Buffer) *logging.Logger {
	return logging.NewWithIdentity(logging.Identity{RequestID: "migrate"}, logging.NewJSONSink(buf, slog.LevelDebug))
}

func migrationRecords(t *testing.T) []json.RawMessage {
	t.Helper()
	recs, err := SplitSource([]byte(`[
		{"id":"a","name":"A","location":"Austin, TX"},
		{"name":"missing id"},
		{"id":"c","name":"C","location":{"city":"Miami","state":"FL"}}
	]`))
	require.NoError(t, err)
	return recs
}

func TestMigrate(t *testing.T) {
	var buf bytes.Buffer
	dst := &fakePutter{}

	summary, err := Migrate(context.Background(), dst, migrationRecords(t), testLogger(&buf), MigrateOptions{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	assert.Equal(t, MigrationSummary{Successful: 2, Failed: 1, Total: 3}, summary)
	assert.Equal(t, 1, dst.calls)
	assert.Equal(t, []string{"A", "C"}, names(dst.got))
	assert.Contains(t, buf.String(), "Failed to transform school")
	assert.Contains(t, buf.String(), "Migration complete")
}

func TestMigrate_DryRunWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	dst := &fakePutter{}

	summary, err := Migrate(context.Background(), dst, migrationRecords(t), testLogger(&buf), MigrateOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, MigrationSummary{Successful: 2, Failed: 1, Total: 3}, summary)
	assert.Zero(t, dst.calls)
}

func TestMigrate_UnprocessedCountsAsFailed(t *testing.T) {
	var buf bytes.Buffer
	dst := &fakePutter{res: &BatchResult{Written: 1, Unprocessed: 1}}

	summary, err := Migrate(context.Background(), dst, migrationRecords(t), testLogger(&buf), MigrateOptions{})
	require.NoError(t, err)
	assert.Equal(t, MigrationSummary{Successful: 1, Failed: 2, Total: 3}, summary)
}

func TestMigrate_WriteError(t *testing.T) {
	var buf bytes.Buffer
	dst := &fakePutter{err: errors.New("throttled")}

	_, err := Migrate(context.Background(), dst, migrationRecords(t), testLogger(&buf), MigrateOptions{})
	assert.ErrorContains(t, err, "throttled")
}

func TestMigrate_ThroughStore(t *testing.T) {
	var buf bytes.Buffer
	store, client := newTestStore(t)

	summary, err := Migrate(context.Background(), store, migrationRecords(t), testLogger(&buf), MigrateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Successful)

	got, err := store.Get(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, "FL", got.State)
	assert.Equal(t, 1, client.BatchWriteItemCalls)
}
