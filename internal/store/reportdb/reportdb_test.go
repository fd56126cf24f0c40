package reportdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botcheck/internal/detect"
	"botcheck/internal/features"
	"botcheck/internal/model"
)

func sampleReport(id, handle string, at time.Time, label model.Label) detect.Report {
	vec := make([]float64, 49)
	vec[0], vec[5] = 100, 0.95
	return detect.Report{
		ID:         id,
		CreatedAt:  at,
		Handle:     handle,
		Account:    model.AccountSnapshot{ID: "1", Username: handle, FollowersCount: 100},
		Scores:     features.Scores{BotScore: 0.95, NormalizedInfluence: 0.5},
		Prediction: label,
		SchemaName: features.Default.Name(),
		Features:   vec,
	}
}

func TestPutGetReport(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	want := sampleReport("r1", "jack", at, model.LabelBot)
	require.NoError(t, db.PutReport(ctx, want))
	got, err := db.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, want.Features, got.Features)
	assert.Equal(t, want.Metrics(), got.Metrics())
	assert.True(t, at.Equal(got.CreatedAt))

	_, err = db.GetReport(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListReportsNewestFirst(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.PutReport(ctx, sampleReport("a", "jack", base, model.LabelNotBot)))
	require.NoError(t, db.PutReport(ctx, sampleReport("b", "spam", base.Add(time.Hour), model.LabelBot)))
	require.NoError(t, db.PutReport(ctx, sampleReport("c", "jack", base.Add(2*time.Hour), model.LabelNotBot)))

	all, err := db.ListReports(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "Bot", all[1].Prediction)

	jack, err := db.ListReports(ctx, "jack", 1)
	require.NoError(t, err)
	require.Len(t, jack, 1)
	assert.Equal(t, "c", jack[0].ID)
}

func TestLoadVectors(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.PutReport(ctx, sampleReport("a", "jack", base, model.LabelNotBot)))
	require.NoError(t, db.PutReport(ctx, sampleReport("b", "spam", base.Add(time.Hour), model.LabelBot)))

	X, y, err := db.LoadVectors(ctx, features.Default.Name(), base, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, X, 2)
	assert.Len(t, X[1], 49)
	assert.Equal(t, 0.95, X[1][5])
	assert.Equal(t, []string{"Not a Bot", "Bot"}, y)

	X, _, err = db.LoadVectors(ctx, "other-schema", base, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, X)
}
