package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"property-billing/internal/dto"
	"property-billing/internal/entities"
	apperrors "property-billing/pkg/errors"
)

func TestSortRoomLabels(t *testing.T) {
	rooms := []string{"101A", "9", "10", "2B"}
	SortRoomLabels(rooms)
	assert.Equal(t, []string{"9", "10", "101A", "2B"}, rooms)
}

func TestSortRoomLabelsNonNumericAreLexical(t *testing.T) {
	rooms := []string{"101A", "2B", "3", "B1"}
	SortRoomLabels(rooms)
	assert.Equal(t, []string{"3", "101A", "2B", "B1"}, rooms)
}

func TestSortBuildings(t *testing.T) {
	buildings := []string{"商铺", "10号楼", "2", "A座", "1号楼", "b座"}
	SortBuildings(buildings)
	assert.Equal(t, []string{"1号楼", "2", "10号楼", "A座", "b座", "商铺"}, buildings)
}

func newDirectoryFixture() (DirectoryServiceInterface, *fakeAddressRepo, *fakeAudit) {
	repo := newFakeAddressRepo(
		&entities.Address{ID: 10, CommunityNumber: 5, Building: "1号楼", Room: "101"},
		&entities.Address{ID: 20, CommunityNumber: 6, Building: "2号楼", Room: "202"},
	)
	audit := &fakeAudit{}
	return NewDirectoryService(repo, audit, zap.NewNop()), repo, audit
}

func TestListRoomsScopedAndSorted(t *testing.T) {
	svc, repo, _ := newDirectoryFixture()
	repo.rooms = []entities.Address{{ID: 1, Room: "10"}, {ID: 2, Room: "9"}, {ID: 3, Room: "1A"}}

	rooms, err := svc.ListRooms(context.Background(), Caller{User: operatorUser(5)}, " 1号楼 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "10", "1A"}, []string{rooms[0].Room, rooms[1].Room, rooms[2].Room})
	assert.Equal(t, 5, *repo.lastScope)

	_, err = svc.ListRooms(context.Background(), Caller{User: operatorUser(5)}, "")
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
}

func TestListBuildingsAdminUnscoped(t *testing.T) {
	svc, repo, _ := newDirectoryFixture()
	repo.buildings = []string{"2号楼", "1号楼"}

	buildings, err := svc.ListBuildings(context.Background(), Caller{User: adminUser()})
	require.NoError(t, err)
	assert.Equal(t, []string{"1号楼", "2号楼"}, buildings)
	assert.Nil(t, repo.lastScope)
}

func TestUpdateResident(t *testing.T) {
	svc, repo, audit := newDirectoryFixture()
	caller := Caller{User: operatorUser(5)}

	result, err := svc.UpdateResident(context.Background(), caller, 10, dto.UpdateResidentDTO{
		ResidentName:  null.StringFrom("王五"),
		ResidentPhone: null.StringFrom("13800138000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "王五", result.ResidentName)
	assert.Equal(t, "13800138000", *repo.addresses[10].ResidentPhone)
	assert.Equal(t, []string{AuditUpdateResident}, audit.operations())
	assert.Equal(t, 5, *audit.records[0].CommunityNumber)
}

func TestUpdateResidentValidationAndScope(t *testing.T) {
	svc, repo, audit := newDirectoryFixture()
	caller := Caller{User: operatorUser(5)}

	_, err := svc.UpdateResident(context.Background(), caller, 10, dto.UpdateResidentDTO{ResidentPhone: null.StringFrom("23800138000")})
	assert.Equal(t, msgInvalidResidentPhone, apperrors.PublicMessage(err))

	_, err = svc.UpdateResident(context.Background(), caller, 10, dto.UpdateResidentDTO{ResidentName: null.StringFrom("Li3")})
	assert.Equal(t, msgInvalidResidentName, apperrors.PublicMessage(err))

	_, err = svc.UpdateResident(context.Background(), caller, 20, dto.UpdateResidentDTO{ResidentName: null.StringFrom("王五")})
	assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))

	_, err = svc.UpdateResident(context.Background(), caller, 99, dto.UpdateResidentDTO{})
	assert.Equal(t, http.StatusNotFound, apperrors.StatusCode(err))

	unchanged, err := svc.UpdateResident(context.Background(), caller, 10, dto.UpdateResidentDTO{ResidentName: null.StringFrom("")})
	require.NoError(t, err)
	assert.Equal(t, "101", unchanged.Room)

	assert.Empty(t, repo.updates)
	assert.Empty(t, audit.records)
}

func TestGetAddressScope(t *testing.T) {
	svc, _, _ := newDirectoryFixture()

	address, err := svc.GetAddress(context.Background(), Caller{User: operatorUser(6)}, 20)
	require.NoError(t, err)
	assert.Equal(t, "202", address.Room)

	_, err = svc.GetAddress(context.Background(), Caller{User: operatorUser(6)}, 10)
	assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))
}
