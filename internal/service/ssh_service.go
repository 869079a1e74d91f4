package service

import (
	"fmt"
	"strings"

	"proxy-deploy-backend/internal/model"
	"proxy-deploy-backend/internal/pkg/logger"
	"proxy-deploy-backend/internal/pkg/ssh"
	"proxy-deploy-backend/pkg/utils"
)

const probeCommand = "whoami && uname -a"

// SSHService checks that a host accepts the given login before a deployment
// is attempted against it.
type SSHService struct {
	executor ssh.Executor
	logger   *logger.Logger
}

func NewSSHService(executor ssh.Executor, logger *logger.Logger) *SSHService {
	return &SSHService{
		executor: executor,
		logger:   logger,
	}
}

func (s *SSHService) TestConnection(req *model.SSHTestRequest) *model.SSHTestResponse {
	cred := ssh.Credential{
		Host:     req.IP,
		Port:     req.Port.OrDefault(),
		Username: req.Username,
		Password: req.Password,
	}
	s.logger.SSHConnectionAttempt(cred)

	result, err := s.executor.Execute(cred, probeCommand)
	if err != nil {
		apiErr := utils.NewSSHError(err)
		return &model.SSHTestResponse{
			Success: false,
			Message: apiErr.Message,
			Details: []string{
				"✗ SSH connection test failed",
				fmt.Sprintf("error: %s", apiErr.Details),
			},
		}
	}

	details := []string{"✓ SSH connection successful"}
	if !result.Succeeded {
		details = append(details, fmt.Sprintf("✗ probe command failed: %s", failureReason(result, nil)))
		return &model.SSHTestResponse{
			Success: true,
			Message: "SSH connection successful, probe command failed",
			Details: details,
		}
	}

	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	if len(lines) > 0 && lines[0] != "" {
		details = append(details, fmt.Sprintf("✓ current user: %s", strings.TrimSpace(lines[0])))
	}
	if len(lines) > 1 {
		details = append(details, fmt.Sprintf("✓ system: %s", strings.TrimSpace(lines[1])))
	}

	return &model.SSHTestResponse{
		Success: true,
		Message: "SSH connection successful",
		Details: details,
	}
}
