package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"property-billing/internal/services"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/middleware"
)

const (
	headerClientHostname = "X-Client-Hostname"
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// callerFrom собирает Caller из контекста запроса. Пользователя кладёт AuthMiddleware.
func callerFrom(ctx echo.Context) services.Caller {
	req := ctx.Request()
	return services.Caller{
		User:      middleware.UserFromContext(req.Context()),
		IP:        ctx.RealIP(),
		Hostname:  req.Header.Get(headerClientHostname),
		UserAgent: req.UserAgent(),
		Method:    req.Method,
		URL:       req.RequestURI,
	}
}

func parseIDParam(ctx echo.Context, name, message string) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewBadRequestError(message)
	}
	return id, nil
}

// sendXLSX отдаёт книгу как вложение. Имя кодируется по RFC 5987, иначе браузеры портят кириллицу.
func sendXLSX(ctx echo.Context, fileName string, content []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		"attachment; filename*=UTF-8''"+url.PathEscape(fileName))
	return ctx.Blob(http.StatusOK, xlsxContentType, content)
}

// validationError превращает ошибку валидатора в сообщение для клиента.
// messages: имя поля структуры -> текст; неизвестные поля получают fallback.
func validationError(err error, messages map[string]string, fallback string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := messages[fieldErrs[0].StructField()]; ok {
			return apperrors.NewValidationError(msg)
		}
	}
	return apperrors.NewValidationError(fallback)
}
