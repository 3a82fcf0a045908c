package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// 错误码
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodePostHogError     = "POSTHOG_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

// SuccessResponse 成功响应
type SuccessResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// ErrorBody 错误详情
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse 失败响应
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// Success 返回 200 和数据
func Success[T any](c echo.Context, data T) error {
	return c.JSON(http.StatusOK, SuccessResponse[T]{Success: true, Data: data})
}

// Fail 返回错误响应
func Fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

func BadRequest(c echo.Context, message string) error {
	return Fail(c, http.StatusBadRequest, CodeBadRequest, message)
}

func PostHogError(c echo.Context, message string) error {
	return Fail(c, http.StatusBadGateway, CodePostHogError, message)
}

func InternalError(c echo.Context, message string) error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return Fail(c, http.StatusInternalServerError, CodeInternalError, message)
}
