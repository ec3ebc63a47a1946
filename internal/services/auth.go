package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"property-billing/internal/dto"
	"property-billing/internal/entities"
	"property-billing/internal/repositories"
	"property-billing/pkg/config"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/metrics"
	"property-billing/pkg/service"
	"property-billing/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, caller Caller, payload dto.LoginDTO) (*dto.LoginResponseDTO, error)
	// Authorize проверяет токен и возвращает актуальную запись пользователя.
	Authorize(ctx context.Context, token string) (*entities.User, error)
}

type AuthService struct {
	userRepo     repositories.UserRepositoryInterface
	cacheRepo    repositories.CacheRepositoryInterface
	jwtService   service.JWTService
	auditService AuditServiceInterface
	metrics      *metrics.Metrics
	logger       *zap.Logger
	cfg          config.AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	auditService AuditServiceInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg config.AuthConfig,
) AuthServiceInterface {
	return &AuthService{
		userRepo:     userRepo,
		cacheRepo:    cacheRepo,
		jwtService:   jwtService,
		auditService: auditService,
		metrics:      m,
		logger:       logger,
		cfg:          cfg,
	}
}

func loginAttemptsKey(username string) string {
	return fmt.Sprintf("login_attempts:%s", username)
}

func (s *AuthService) Login(ctx context.Context, caller Caller, payload dto.LoginDTO) (*dto.LoginResponseDTO, error) {
	logger := s.logger.With(zap.String("username", payload.Username), zap.String("ip", caller.IP))

	// 1. Блокировка после серии неудачных попыток
	attemptsKey := loginAttemptsKey(payload.Username)
	attemptsStr, err := s.cacheRepo.Get(ctx, attemptsKey)
	if err != nil && !errors.Is(err, repositories.ErrCacheMiss) {
		logger.Warn("Кеш недоступен, проверка блокировки пропущена", zap.Error(err))
	}
	if attempts, _ := strconv.Atoi(attemptsStr); s.cfg.MaxLoginAttempts > 0 && attempts >= s.cfg.MaxLoginAttempts {
		logger.Warn("Вход заблокирован: превышено число попыток")
		s.metrics.Login("locked")
		return nil, apperrors.NewHttpError(
			http.StatusTooManyRequests,
			fmt.Sprintf("Слишком много попыток. Попробуйте через %.0f минут.", s.cfg.LockoutDuration.Minutes()),
			apperrors.ErrTooManyAttempts,
			nil,
		)
	}

	// 2. Пользователь и пароль
	user, err := s.userRepo.FindByUsername(ctx, payload.Username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Ошибка поиска пользователя", zap.Error(err))
			return nil, apperrors.NewDatabaseError(err)
		}
		s.registerFailure(ctx, attemptsKey, logger)
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.registerFailure(ctx, attemptsKey, logger)
		return nil, apperrors.ErrInvalidCredentials
	}

	// 3. Токен до конца суток
	token, expiresAt, err := s.jwtService.GenerateToken(service.TokenSubject{
		UserID:          user.ID,
		Username:        user.Username,
		RealName:        user.RealName,
		CommunityNumber: user.CommunityNumber,
		Role:            string(user.Role),
	})
	if err != nil {
		logger.Error("Не удалось создать токен", zap.Error(err))
		return nil, fmt.Errorf("не удалось создать токен: %w", err)
	}

	if err := s.cacheRepo.Del(ctx, attemptsKey); err != nil {
		logger.Warn("Не удалось сбросить счётчик попыток", zap.Error(err))
	}
	s.metrics.Login("success")

	caller.User = user
	s.auditService.Record(ctx, caller, AuditRecord{
		OperationType: AuditLogin,
		Module:        "auth",
		Details:       fmt.Sprintf("用户 %s 登录成功", user.Username),
		TargetID:      strconv.FormatUint(user.ID, 10),
		TargetType:    "user",
	})
	logger.Info("Пользователь вошёл в систему", zap.Uint64("userID", user.ID))

	return &dto.LoginResponseDTO{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserProfileDTO(user),
	}, nil
}

func (s *AuthService) registerFailure(ctx context.Context, attemptsKey string, logger *zap.Logger) {
	s.metrics.Login("failure")
	logger.Warn("Неверные учётные данные")
	if _, err := s.cacheRepo.Incr(ctx, attemptsKey); err != nil {
		logger.Warn("Не удалось увеличить счётчик попыток", zap.Error(err))
		return
	}
	if _, err := s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration); err != nil {
		logger.Warn("Не удалось задать срок блокировки", zap.Error(err))
	}
}

func (s *AuthService) Authorize(ctx context.Context, token string) (*entities.User, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Токен принадлежит удалённому пользователю", zap.Uint64("userID", claims.UserID))
			return nil, apperrors.ErrUnauthorized
		}
		s.logger.Error("Ошибка загрузки пользователя по токену", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	return user, nil
}
