package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proxy-deploy-backend/internal/model"
	"proxy-deploy-backend/pkg/utils"
)

type Deployer interface {
	Deploy(req *model.DeployRequest) *model.DeployResponse
}

type DeployHandler struct {
	deployer Deployer
}

func NewDeployHandler(deployer Deployer) *DeployHandler {
	return &DeployHandler{
		deployer: deployer,
	}
}

// Deploy runs the whole deployment synchronously. Pipeline failures are
// reported in the body with status 200; only malformed requests get 400.
func (h *DeployHandler) Deploy(c *gin.Context) {
	var req model.DeployRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, utils.NewRequestError(err))
		return
	}
	if err := utils.ValidateHost(req.VMIP); err != nil {
		badRequest(c, utils.NewValidationError("vmIP", err))
		return
	}

	result := h.deployer.Deploy(&req)
	c.JSON(http.StatusOK, result)
}

func badRequest(c *gin.Context, apiErr *utils.APIError) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Success: false,
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}
