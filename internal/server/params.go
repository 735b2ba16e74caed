package server

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Cloutiere/mermaid/pkg/apperror"
)

// ParamID reads a positive integer path parameter.
func ParamID(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest(name + " must be a positive integer")
	}
	return id, nil
}
