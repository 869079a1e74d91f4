package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proxy-deploy-backend/internal/model"
	"proxy-deploy-backend/pkg/utils"
)

type ConnectionTester interface {
	TestConnection(req *model.SSHTestRequest) *model.SSHTestResponse
}

type SSHHandler struct {
	tester ConnectionTester
}

func NewSSHHandler(tester ConnectionTester) *SSHHandler {
	return &SSHHandler{
		tester: tester,
	}
}

func (h *SSHHandler) TestConnection(c *gin.Context) {
	var req model.SSHTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, utils.NewRequestError(err))
		return
	}
	if err := utils.ValidateHost(req.IP); err != nil {
		badRequest(c, utils.NewValidationError("ip", err))
		return
	}

	result := h.tester.TestConnection(&req)
	c.JSON(http.StatusOK, result)
}
