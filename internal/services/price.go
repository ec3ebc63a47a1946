package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"property-billing/internal/authz"
	"property-billing/internal/dto"
	"property-billing/internal/entities"
	"property-billing/internal/repositories"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/types"
)

type PriceServiceInterface interface {
	// GetPrices возвращает тарифы комплекса пользователя. Если тарифы не заданы,
	// возвращаются нули, configured=false и поясняющее сообщение.
	GetPrices(ctx context.Context, caller Caller) (*dto.PricesResponseDTO, string, error)
	UpdateOwnPrices(ctx context.Context, caller Caller, payload dto.UpdatePricesDTO) (*dto.FeePriceDTO, error)
	UpdatePrices(ctx context.Context, caller Caller, communityNumber int, payload dto.UpdatePricesDTO) (*dto.FeePriceDTO, error)
	CreatePriceTable(ctx context.Context, caller Caller, payload dto.CreatePriceTableDTO) (*dto.FeePriceDTO, error)
	DeletePriceTable(ctx context.Context, caller Caller, communityNumber int) error
	ListPriceTables(ctx context.Context, caller Caller, nameFilter string, page types.Page) ([]dto.FeePriceDTO, uint64, error)
	ListCommunities(ctx context.Context, caller Caller) ([]string, error)
	ExportAll(ctx context.Context, caller Caller) (*bytes.Buffer, error)
	Template(ctx context.Context, caller Caller) (*bytes.Buffer, error)
	ImportAll(ctx context.Context, caller Caller, file io.Reader) (*dto.ImportResultDTO, error)
}

type PriceService struct {
	txManager     repositories.TxManagerInterface
	priceRepo     repositories.FeePriceRepositoryInterface
	communityRepo repositories.CommunityRepositoryInterface
	cacheRepo     repositories.CacheRepositoryInterface
	auditService  AuditServiceInterface
	cacheTTL      time.Duration
	logger        *zap.Logger
}

func NewPriceService(
	txManager repositories.TxManagerInterface,
	priceRepo repositories.FeePriceRepositoryInterface,
	communityRepo repositories.CommunityRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	auditService AuditServiceInterface,
	cacheTTL time.Duration,
	logger *zap.Logger,
) PriceServiceInterface {
	return &PriceService{
		txManager:     txManager,
		priceRepo:     priceRepo,
		communityRepo: communityRepo,
		cacheRepo:     cacheRepo,
		auditService:  auditService,
		cacheTTL:      cacheTTL,
		logger:        logger,
	}
}

func priceCacheKey(communityNumber int) string {
	return fmt.Sprintf("fee_prices:%d", communityNumber)
}

func (s *PriceService) invalidate(ctx context.Context, communityNumbers ...int) {
	if len(communityNumbers) == 0 {
		return
	}
	keys := make([]string, 0, len(communityNumbers))
	for _, n := range communityNumbers {
		keys = append(keys, priceCacheKey(n))
	}
	if err := s.cacheRepo.Del(ctx, keys...); err != nil {
		s.logger.Warn("Не удалось сбросить кеш тарифов", zap.Strings("keys", keys), zap.Error(err))
	}
}

// loadPrices читает тарифы через кеш. Отсутствие строки возвращает ErrNotFound.
func (s *PriceService) loadPrices(ctx context.Context, communityNumber int) (*entities.FeePrice, error) {
	key := priceCacheKey(communityNumber)
	cached, err := s.cacheRepo.Get(ctx, key)
	if err == nil {
		var price entities.FeePrice
		if jsonErr := json.Unmarshal([]byte(cached), &price); jsonErr == nil {
			return &price, nil
		}
		s.logger.Warn("Повреждённая запись кеша тарифов", zap.String("key", key))
	} else if !errors.Is(err, repositories.ErrCacheMiss) {
		s.logger.Warn("Кеш тарифов недоступен", zap.Error(err))
	}

	price, err := s.priceRepo.FindByCommunityNumber(ctx, nil, communityNumber)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(price); err == nil {
		if err := s.cacheRepo.Set(ctx, key, data, s.cacheTTL); err != nil {
			s.logger.Warn("Не удалось сохранить тарифы в кеш", zap.String("key", key), zap.Error(err))
		}
	}
	return price, nil
}

func (s *PriceService) GetPrices(ctx context.Context, caller Caller) (*dto.PricesResponseDTO, string, error) {
	if caller.User == nil {
		return nil, "", apperrors.ErrUnauthorized
	}
	communityNumber := caller.User.CommunityNumber

	price, err := s.loadPrices(ctx, communityNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &dto.PricesResponseDTO{Configured: false},
				fmt.Sprintf("未找到编号为 %d 的收费标准，请联系管理员配置", communityNumber), nil
		}
		s.logger.Error("Ошибка получения тарифов", zap.Int("community", communityNumber), zap.Error(err))
		return nil, "", apperrors.NewDatabaseError(err)
	}
	return &dto.PricesResponseDTO{PriceSetDTO: dto.NewPriceSetDTO(price), Configured: true}, "", nil
}

func validatePriceChanges(changes entities.PriceChanges) error {
	for _, c := range entities.AllFeeCategories {
		if v, ok := changes[c]; ok && v.IsNegative() {
			return apperrors.NewValidationError(fmt.Sprintf("%s单价不能为负数", c.Title()))
		}
	}
	return nil
}

func (s *PriceService) UpdateOwnPrices(ctx context.Context, caller Caller, payload dto.UpdatePricesDTO) (*dto.FeePriceDTO, error) {
	if !authz.Can(caller.User, authz.PricesUpdateOwn, nil) {
		return nil, apperrors.NewForbiddenError("当前用户没有编辑权限")
	}
	return s.update(ctx, caller, caller.User.CommunityNumber, payload)
}

func (s *PriceService) UpdatePrices(ctx context.Context, caller Caller, communityNumber int, payload dto.UpdatePricesDTO) (*dto.FeePriceDTO, error) {
	if !authz.Can(caller.User, authz.PricesManage, nil) {
		return nil, apperrors.NewForbiddenError("需要管理员权限")
	}
	return s.update(ctx, caller, communityNumber, payload)
}

func (s *PriceService) update(ctx context.Context, caller Caller, communityNumber int, payload dto.UpdatePricesDTO) (*dto.FeePriceDTO, error) {
	changes := payload.Changes()
	if err := validatePriceChanges(changes); err != nil {
		return nil, err
	}

	var updated *entities.FeePrice
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.priceRepo.Update(ctx, tx, communityNumber, changes); err != nil {
			return err
		}
		var err error
		updated, err = s.priceRepo.FindByCommunityNumber(ctx, tx, communityNumber)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("未找到编号为 %d 的收费标准配置", communityNumber))
		}
		s.logger.Error("Ошибка обновления тарифов", zap.Int("community", communityNumber), zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	s.invalidate(ctx, communityNumber)

	s.auditService.Record(ctx, caller, AuditRecord{
		OperationType:   AuditUpdatePrices,
		Module:          "fee_prices",
		Details:         fmt.Sprintf("更新小区 [%s] 的收费标准", updated.CommunityName),
		TargetID:        strconv.Itoa(communityNumber),
		TargetType:      "fee_price",
		CommunityNumber: &communityNumber,
	})

	result := dto.NewFeePriceDTO(updated)
	return &result, nil
}

// resolveCommunity находит комплекс по названию или регистрирует новый.
// Для нового комплекса номер обязателен.
func (s *PriceService) resolveCommunity(ctx context.Context, tx pgx.Tx, name string, number *int) (*entities.Community, error) {
	community, err := s.communityRepo.FindByName(ctx, tx, name)
	if err == nil {
		if number != nil && *number != community.Number {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("小区 [%s] 已登记，编号为 %d", community.Name, community.Number))
		}
		return community, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if number == nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("小区 [%s] 未登记，请提供小区编号", name))
	}
	if existing, err := s.communityRepo.FindByNumber(ctx, tx, *number); err == nil {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("编号 %d 已被小区 [%s] 使用", existing.Number, existing.Name))
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	community = &entities.Community{Number: *number, Name: name}
	if err := s.communityRepo.Register(ctx, tx, *community); err != nil {
		return nil, err
	}
	return community, nil
}

func (s *PriceService) CreatePriceTable(ctx context.Context, caller Caller, payload dto.CreatePriceTableDTO) (*dto.FeePriceDTO, error) {
	if !authz.Can(caller.User, authz.PricesManage, nil) {
		return nil, apperrors.NewForbiddenError("需要管理员权限")
	}
	name := strings.TrimSpace(payload.Community)
	if name == "" {
		return nil, apperrors.NewBadRequestError("缺少必要字段: community")
	}
	changes := payload.Changes()
	if err := validatePriceChanges(changes); err != nil {
		return nil, err
	}

	var created *entities.FeePrice
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		community, err := s.resolveCommunity(ctx, tx, name, payload.CommunityNumber)
		if err != nil {
			return err
		}

		if _, err := s.priceRepo.FindByCommunityNumber(ctx, tx, community.Number); err == nil {
			return apperrors.NewConflictError(fmt.Sprintf("小区 [%s] 的收费标准已存在", community.Name))
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		price := entities.FeePrice{CommunityNumber: community.Number, CommunityName: community.Name}
		for c, v := range changes {
			price.SetPrice(c, v)
		}
		if price.ID, err = s.priceRepo.Create(ctx, tx, price); err != nil {
			return err
		}
		created, err = s.priceRepo.FindByCommunityNumber(ctx, tx, community.Number)
		return err
	})
	if err != nil {
		var httpErr *apperrors.HttpError
		if errors.As(err, &httpErr) {
			return nil, err
		}
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("小区 [%s] 的收费标准已存在", name))
		}
		s.logger.Error("Ошибка создания тарифов", zap.String("community", name), zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	s.invalidate(ctx, created.CommunityNumber)

	s.auditService.Record(ctx, caller, AuditRecord{
		OperationType:   AuditCreatePrices,
		Module:          "fee_prices",
		Details:         fmt.Sprintf("新增小区 [%s] 的收费标准", created.CommunityName),
		TargetID:        strconv.Itoa(created.CommunityNumber),
		TargetType:      "fee_price",
		CommunityNumber: &created.CommunityNumber,
	})

	result := dto.NewFeePriceDTO(created)
	return &result, nil
}

func (s *PriceService) DeletePriceTable(ctx context.Context, caller Caller, communityNumber int) error {
	if !authz.Can(caller.User, authz.PricesManage, nil) {
		return apperrors.NewForbiddenError("需要管理员权限")
	}

	if err := s.priceRepo.Delete(ctx, nil, communityNumber); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError(fmt.Sprintf("未找到编号为 %d 的收费标准", communityNumber))
		}
		s.logger.Error("Ошибка удаления тарифов", zap.Int("community", communityNumber), zap.Error(err))
		return apperrors.NewDatabaseError(err)
	}
	s.invalidate(ctx, communityNumber)

	s.auditService.Record(ctx, caller, AuditRecord{
		OperationType:   AuditDeletePrices,
		Module:          "fee_prices",
		Details:         fmt.Sprintf("删除编号为 %d 的收费标准", communityNumber),
		TargetID:        strconv.Itoa(communityNumber),
		TargetType:      "fee_price",
		CommunityNumber: &communityNumber,
	})
	return nil
}

func (s *PriceService) ListPriceTables(ctx context.Context, caller Caller, nameFilter string, page types.Page) ([]dto.FeePriceDTO, uint64, error) {
	if !authz.Can(caller.User, authz.PricesManage, nil) {
		return nil, 0, apperrors.NewForbiddenError("需要管理员权限")
	}
	list, total, err := s.priceRepo.List(ctx, strings.TrimSpace(nameFilter), page)
	if err != nil {
		s.logger.Error("Ошибка получения списка тарифов", zap.Error(err))
		return nil, 0, apperrors.NewDatabaseError(err)
	}
	result := make([]dto.FeePriceDTO, 0, len(list))
	for i := range list {
		result = append(result, dto.NewFeePriceDTO(&list[i]))
	}
	return result, total, nil
}

func (s *PriceService) ListCommunities(ctx context.Context, caller Caller) ([]string, error) {
	if caller.User == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !caller.User.IsAdmin() {
		if caller.User.CommunityName == "" {
			return []string{}, nil
		}
		return []string{caller.User.CommunityName}, nil
	}
	names, err := s.communityRepo.ListNames(ctx)
	if err != nil {
		s.logger.Error("Ошибка получения списка комплексов", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	return names, nil
}
