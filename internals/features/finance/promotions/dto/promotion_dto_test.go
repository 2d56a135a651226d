package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioku_backend/internals/features/finance/promotions/model"
)

func TestCreatePromotionRequest_ToModel(t *testing.T) {
	m, err := CreatePromotionRequest{
		PromotionName:             "Summer 4-pack",
		PromotionClassesPerClient: 4,
		PromotionStartDate:        "2026-06-01",
		PromotionEndDate:          "2026-08-31",
	}.ToModel()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), m.PromotionStartDate)
	assert.True(t, m.PromotionIsActive)

	_, err = CreatePromotionRequest{PromotionStartDate: "2026-08-31", PromotionEndDate: "2026-06-01"}.ToModel()
	assert.ErrorIs(t, err, ErrDateRange)
}

func TestUpdateInstanceRequest_MergesWithCurrentWindow(t *testing.T) {
	m, err := CreateInstanceRequest{StartDate: "2026-06-01", EndDate: "2026-06-30"}.ToModel(uuid.New())
	require.NoError(t, err)

	end := "2026-07-15"
	require.NoError(t, UpdateInstanceRequest{EndDate: &end}.Apply(&m))
	assert.True(t, m.ActiveOn(time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)))

	badStart := "2026-08-01"
	assert.ErrorIs(t, UpdateInstanceRequest{StartDate: &badStart}.Apply(&m), ErrDateRange)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), m.PromotionInstanceStartDate, "unchanged on error")
}

func TestUpdatePromotionRequest_Apply(t *testing.T) {
	m := model.PromotionModel{
		PromotionClassesPerClient: 4,
		PromotionStartDate:        time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		PromotionEndDate:          time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	n := 6
	require.NoError(t, UpdatePromotionRequest{PromotionClassesPerClient: &n}.Apply(&m))
	assert.Equal(t, 6, m.PromotionClassesPerClient)
}
