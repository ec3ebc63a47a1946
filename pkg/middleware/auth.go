package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"property-billing/internal/authz"
	"property-billing/internal/entities"
	"property-billing/pkg/api"
	"property-billing/pkg/contextkeys"
	apperrors "property-billing/pkg/errors"
)

// Authorizer проверяет токен и возвращает актуальную запись пользователя.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*entities.User, error)
}

type AuthMiddleware struct {
	authorizer Authorizer
	logger     *zap.Logger
}

func NewAuthMiddleware(authorizer Authorizer, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authorizer: authorizer,
		logger:     logger,
	}
}

// Auth - это основная функция middleware.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// 1. Извлекаем токен из заголовка
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			m.logger.Warn("AuthMiddleware: Пустой заголовок Authorization")
			return api.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, nil)
		}

		// 2. Проверяем формат заголовка "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			m.logger.Warn("AuthMiddleware: Неверный формат заголовка Authorization")
			return api.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, nil)
		}

		// 3. Токен и живая запись пользователя
		user, err := m.authorizer.Authorize(c.Request().Context(), parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
			return api.ErrorResponse(c, err, nil)
		}

		// 4. Пользователь уходит в контекст запроса
		ctx := context.WithValue(c.Request().Context(), contextkeys.UserKey, user)
		c.SetRequest(c.Request().WithContext(ctx))

		m.logger.Debug("AuthMiddleware: Пользователь успешно аутентифицирован", zap.Uint64("userID", user.ID))
		return next(c)
	}
}

// AuthorizeAny пропускает запрос, если у пользователя есть хотя бы одно из прав.
// Ставится после Auth.
func (m *AuthMiddleware) AuthorizeAny(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := UserFromContext(c.Request().Context())
			if user == nil {
				return api.ErrorResponse(c, apperrors.ErrUnauthorized, nil)
			}
			granted := authz.PermissionsFor(user)
			for _, p := range permissions {
				if granted[p] {
					return next(c)
				}
			}
			m.logger.Warn("AuthorizeAny: нет прав",
				zap.Uint64("userID", user.ID),
				zap.Strings("required", permissions),
				zap.String("path", c.Path()))
			return api.ErrorResponse(c, apperrors.ErrForbidden, nil)
		}
	}
}

// UserFromContext возвращает пользователя, которого положил Auth. nil: запрос без токена.
func UserFromContext(ctx context.Context) *entities.User {
	user, _ := ctx.Value(contextkeys.UserKey).(*entities.User)
	return user
}
