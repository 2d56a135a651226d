package dto

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioku_backend/internals/features/finance/memberships/model"
)

func TestCreateMembershipRequest_Defaults(t *testing.T) {
	sede := uuid.New()
	m, err := CreateMembershipRequest{MembershipName: " Monthly 8 ", MembershipSedeID: &sede}.ToModel()
	require.NoError(t, err)
	assert.Equal(t, "Monthly 8", m.MembershipName)
	assert.Equal(t, model.MembershipKindPlan, m.MembershipKind)
	assert.Equal(t, model.MembershipScopeGlobal, m.MembershipScope)
	assert.Nil(t, m.MembershipSedeID, "global plans drop the sede")
	assert.True(t, m.IsUnlimited())
}

func TestCreateMembershipRequest_SedeScopeNeedsSede(t *testing.T) {
	_, err := CreateMembershipRequest{MembershipName: "Local", MembershipScope: "sede"}.ToModel()
	assert.ErrorIs(t, err, ErrSedeRequired)
}

func TestUpdateMembershipRequest_Apply(t *testing.T) {
	m := model.MembershipModel{MembershipKind: model.MembershipKindIndividual, MembershipScope: model.MembershipScopeGlobal}
	price := int64(150000)
	scope := "sede"

	assert.ErrorIs(t, UpdateMembershipRequest{MembershipScope: &scope}.Apply(&m), ErrSedeRequired)

	sede := uuid.New()
	require.NoError(t, UpdateMembershipRequest{MembershipScope: &scope, MembershipSedeID: &sede, MembershipPrice: &price}.Apply(&m))
	assert.Equal(t, price, m.MembershipPrice)
	assert.Equal(t, &sede, m.MembershipSedeID)
	assert.Equal(t, model.MembershipKindIndividual, m.MembershipKind)
}
