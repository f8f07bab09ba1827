package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the envelope with a matching HTTP status.
func DataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func ListResponse(c echo.Context, rows interface{}, total int) error {
	return SuccessResponse(c, &ListDataResponse{Rows: rows, Total: total})
}

func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse renders AppErrors with their own status and anything else as a 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}
