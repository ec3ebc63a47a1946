package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "property-billing/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Response[T any] struct {
	Status     string          `json:"status"`
	Message    string          `json:"message,omitempty"`
	Data       T               `json:"data,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type ListResponse[T any] struct {
	Status     string          `json:"status"`
	Message    string          `json:"message,omitempty"`
	Data       []T             `json:"data"`
	Pagination *PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Total   uint64 `json:"total"`
	Pages   int    `json:"pages"`
}

func NewPaginationMeta(page, perPage int, total uint64) *PaginationMeta {
	pages := 0
	if perPage > 0 {
		pages = int((total + uint64(perPage) - 1) / uint64(perPage))
	}
	return &PaginationMeta{Page: page, PerPage: perPage, Total: total, Pages: pages}
}

// SuccessOne: для возврата одного объекта
func SuccessOne[T any](c echo.Context, code int, message string, data T) error {
	return c.JSON(code, Response[T]{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

func SuccessList[T any](c echo.Context, message string, list []T, total uint64, page, perPage int) error {
	if list == nil {
		list = make([]T, 0)
	}

	return c.JSON(http.StatusOK, ListResponse[T]{
		Status:     StatusSuccess,
		Message:    message,
		Data:       list,
		Pagination: NewPaginationMeta(page, perPage, total),
	})
}

// ErrorResponse отдаёт клиенту только безопасное сообщение, подробности уходят в лог.
func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	code := apperrors.StatusCode(err)
	if logger != nil {
		fields := []zap.Field{
			zap.Error(err),
			zap.Int("status", code),
			zap.String("path", c.Path()),
		}
		if code >= http.StatusInternalServerError {
			logger.Error("Ошибка обработки запроса", fields...)
		} else {
			logger.Warn("Запрос отклонён", fields...)
		}
	}

	return c.JSON(code, Response[any]{
		Status:  StatusError,
		Message: apperrors.PublicMessage(err),
	})
}
