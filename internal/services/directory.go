package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"property-billing/internal/authz"
	"property-billing/internal/dto"
	"property-billing/internal/entities"
	"property-billing/internal/repositories"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/validation"
)

const (
	msgInvalidResidentName  = "姓名格式不正确（2-10个中英文字符）"
	msgInvalidResidentPhone = "手机号格式不正确（11位数字，1开头）"
)

type DirectoryServiceInterface interface {
	ListBuildings(ctx context.Context, caller Caller) ([]string, error)
	ListRooms(ctx context.Context, caller Caller, building string) ([]dto.AddressDTO, error)
	GetAddress(ctx context.Context, caller Caller, id uint64) (*dto.AddressDTO, error)
	UpdateResident(ctx context.Context, caller Caller, id uint64, payload dto.UpdateResidentDTO) (*dto.AddressDTO, error)
}

type DirectoryService struct {
	addressRepo  repositories.AddressRepositoryInterface
	auditService AuditServiceInterface
	logger       *zap.Logger
}

func NewDirectoryService(
	addressRepo repositories.AddressRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) DirectoryServiceInterface {
	return &DirectoryService{addressRepo: addressRepo, auditService: auditService, logger: logger}
}

// residentUpdate проверяет формат имени и телефона. Пустая строка означает «не менять».
func residentUpdate(name, phone *string) (entities.ResidentUpdate, error) {
	var upd entities.ResidentUpdate
	if name != nil {
		if v := strings.TrimSpace(*name); v != "" {
			if !validation.IsResidentName(v) {
				return upd, apperrors.NewValidationError(msgInvalidResidentName)
			}
			upd.Name = &v
		}
	}
	if phone != nil {
		if v := strings.TrimSpace(*phone); v != "" {
			if !validation.IsResidentPhone(v) {
				return upd, apperrors.NewValidationError(msgInvalidResidentPhone)
			}
			upd.Phone = &v
		}
	}
	return upd, nil
}

func (s *DirectoryService) ListBuildings(ctx context.Context, caller Caller) ([]string, error) {
	if !authz.Can(caller.User, authz.AddressesView, nil) {
		return nil, apperrors.ErrForbidden
	}
	buildings, err := s.addressRepo.ListBuildings(ctx, authz.CommunityScope(caller.User))
	if err != nil {
		s.logger.Error("Ошибка получения списка корпусов", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	SortBuildings(buildings)
	return buildings, nil
}

func (s *DirectoryService) ListRooms(ctx context.Context, caller Caller, building string) ([]dto.AddressDTO, error) {
	if !authz.Can(caller.User, authz.AddressesView, nil) {
		return nil, apperrors.ErrForbidden
	}
	building = strings.TrimSpace(building)
	if building == "" {
		return nil, apperrors.NewBadRequestError("请提供楼栋号")
	}
	rooms, err := s.addressRepo.ListRooms(ctx, authz.CommunityScope(caller.User), building)
	if err != nil {
		s.logger.Error("Ошибка получения списка квартир", zap.String("building", building), zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	sortRooms(rooms)
	return dto.NewAddressDTOs(rooms), nil
}

func (s *DirectoryService) findScoped(ctx context.Context, caller Caller, id uint64, permission string) (*entities.Address, error) {
	address, err := s.addressRepo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("地址不存在")
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	if !authz.Can(caller.User, permission, address) {
		return nil, apperrors.NewForbiddenError("无权操作此地址")
	}
	return address, nil
}

func (s *DirectoryService) GetAddress(ctx context.Context, caller Caller, id uint64) (*dto.AddressDTO, error) {
	address, err := s.findScoped(ctx, caller, id, authz.AddressesView)
	if err != nil {
		return nil, err
	}
	result := dto.NewAddressDTO(address)
	return &result, nil
}

func (s *DirectoryService) UpdateResident(ctx context.Context, caller Caller, id uint64, payload dto.UpdateResidentDTO) (*dto.AddressDTO, error) {
	address, err := s.findScoped(ctx, caller, id, authz.AddressesUpdate)
	if err != nil {
		return nil, err
	}

	upd, err := residentUpdate(payload.ResidentName.Ptr(), payload.ResidentPhone.Ptr())
	if err != nil {
		return nil, err
	}
	if upd.Empty() {
		result := dto.NewAddressDTO(address)
		return &result, nil
	}

	if err := s.addressRepo.UpdateResident(ctx, nil, id, upd); err != nil {
		s.logger.Error("Ошибка обновления данных жильца", zap.Uint64("addressID", id), zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	if upd.Name != nil {
		address.ResidentName = upd.Name
	}
	if upd.Phone != nil {
		address.ResidentPhone = upd.Phone
	}

	communityNumber := address.CommunityNumber
	s.auditService.Record(ctx, caller, AuditRecord{
		OperationType:   AuditUpdateResident,
		Module:          "address",
		Details:         fmt.Sprintf("修改地址 %s-%s 的住户信息", address.Building, address.Room),
		TargetID:        strconv.FormatUint(id, 10),
		TargetType:      "address",
		CommunityNumber: &communityNumber,
	})

	result := dto.NewAddressDTO(address)
	return &result, nil
}
