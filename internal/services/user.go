package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"property-billing/internal/authz"
	"property-billing/internal/dto"
	"property-billing/internal/repositories"
	apperrors "property-billing/pkg/errors"
)

type UserServiceInterface interface {
	Profile(ctx context.Context, caller Caller) (*dto.UserProfileDTO, error)
	UpdateDisplayName(ctx context.Context, caller Caller, userID uint64, payload dto.UpdateDisplayNameDTO) (*dto.UserProfileDTO, error)
}

type UserService struct {
	userRepo     repositories.UserRepositoryInterface
	auditService AuditServiceInterface
	logger       *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{
		userRepo:     userRepo,
		auditService: auditService,
		logger:       logger,
	}
}

func (s *UserService) Profile(_ context.Context, caller Caller) (*dto.UserProfileDTO, error) {
	if caller.User == nil {
		return nil, apperrors.ErrUnauthorized
	}
	profile := dto.NewUserProfileDTO(caller.User)
	return &profile, nil
}

func (s *UserService) UpdateDisplayName(ctx context.Context, caller Caller, userID uint64, payload dto.UpdateDisplayNameDTO) (*dto.UserProfileDTO, error) {
	if caller.User == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !authz.Can(caller.User, authz.UsersUpdate, nil) {
		return nil, apperrors.NewForbiddenError("需要管理员权限")
	}
	realName := strings.TrimSpace(payload.RealName)
	if realName == "" {
		return nil, apperrors.NewValidationError("姓名不能为空")
	}

	target, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("用户不存在")
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	if err := s.userRepo.UpdateRealName(ctx, target.ID, realName); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("用户不存在")
		}
		s.logger.Error("Ошибка обновления имени пользователя", zap.Uint64("userID", target.ID), zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}

	oldName := target.RealName
	target.RealName = realName
	s.auditService.Record(ctx, caller, AuditRecord{
		OperationType:   AuditUpdateUserName,
		Module:          "users",
		Details:         fmt.Sprintf("将用户 %s 的姓名从「%s」修改为「%s」", target.Username, oldName, realName),
		TargetID:        fmt.Sprint(target.ID),
		TargetType:      "user",
		CommunityNumber: &target.CommunityNumber,
	})

	profile := dto.NewUserProfileDTO(target)
	return &profile, nil
}
