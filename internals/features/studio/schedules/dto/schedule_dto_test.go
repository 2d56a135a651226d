package dto

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioku_backend/internals/features/studio/schedules/model"
)

func TestCreateScheduleRequest_IndividualForcesSingleSeat(t *testing.T) {
	req := CreateScheduleRequest{
		ScheduleSedeID:    uuid.New(),
		ScheduleDayOfWeek: 2,
		ScheduleStartTime: "07:30",
		ScheduleClassType: "individual",
		ScheduleCapacity:  6,
	}
	m, err := req.ToModel()
	require.NoError(t, err)
	assert.Equal(t, 1, m.ScheduleCapacity)
	assert.Equal(t, 50, m.ScheduleDurationMinutes)
	assert.True(t, m.ScheduleIsActive)
}

func TestUpdateScheduleRequest_Apply(t *testing.T) {
	m := model.ScheduleModel{ScheduleClassType: model.ClassTypeIndividual, ScheduleCapacity: 1, ScheduleDurationMinutes: 50}

	cap8, reformer := 8, "reformer"
	require.NoError(t, UpdateScheduleRequest{ScheduleCapacity: &cap8}.Apply(&m))
	assert.Equal(t, 1, m.ScheduleCapacity, "individual stays single seat")

	require.NoError(t, UpdateScheduleRequest{ScheduleCapacity: &cap8, ScheduleClassType: &reformer}.Apply(&m))
	assert.Equal(t, 8, m.ScheduleCapacity)

	bad := "25:99"
	assert.Error(t, UpdateScheduleRequest{ScheduleStartTime: &bad}.Apply(&m))
}

func TestFromModel_EndTime(t *testing.T) {
	m := model.ScheduleModel{ScheduleDurationMinutes: 55}
	start, err := CreateScheduleRequest{ScheduleStartTime: "18:15", ScheduleClassType: "mat", ScheduleCapacity: 4}.ToModel()
	require.NoError(t, err)
	m.ScheduleStartTime = start.ScheduleStartTime
	assert.Equal(t, "19:10", FromModel(m).EndTime)
}
