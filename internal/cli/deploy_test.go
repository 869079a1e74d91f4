package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxy-deploy-backend/internal/handler"
	"proxy-deploy-backend/internal/model"
	"proxy-deploy-backend/pkg/utils"
)

type stubDeployer struct {
	got  *model.DeployRequest
	resp *model.DeployResponse
}

func (s *stubDeployer) Deploy(req *model.DeployRequest) *model.DeployResponse {
	s.got = req
	return s.resp
}

func runCommand(t *testing.T, deployer *stubDeployer, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewDeployCommand(func() (handler.Deployer, error) { return deployer, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDeployCommand_Success(t *testing.T) {
	deployer := &stubDeployer{resp: &model.DeployResponse{
		Success:      true,
		DeploymentID: "0d5e",
		Steps: []model.Step{
			{Step: 1, Action: "Connecting to initial VM", Status: model.StepCompleted},
			{Step: 2, Action: "Searching for ws-tsdb component", Status: model.StepCompleted, Result: "Found ws-tsdb VM IP: 10.0.0.5"},
			{Step: 3, Action: "Connecting to ws-tsdb VM (10.0.0.5)", Status: model.StepCompleted},
		},
		Message: "TCP Proxy successfully deployed on 10.0.0.5",
	}}

	out, err := runCommand(t, deployer, "s3cret\n", "--host", "192.168.10.2", "--user", "admin", "--port", "2222", "--password-stdin")
	require.NoError(t, err)

	require.NotNil(t, deployer.got)
	assert.Equal(t, "192.168.10.2", deployer.got.VMIP)
	assert.Equal(t, "admin", deployer.got.Username)
	assert.Equal(t, "s3cret", deployer.got.Password)
	assert.Equal(t, 2222, deployer.got.Port.OrDefault())

	assert.Contains(t, out, "deployment 0d5e")
	assert.Contains(t, out, "Found ws-tsdb VM IP: 10.0.0.5")
	assert.Contains(t, out, "TCP Proxy successfully deployed on 10.0.0.5")
	assert.NotContains(t, out, "s3cret")
}

func TestDeployCommand_FailureReturnsDeployError(t *testing.T) {
	deployer := &stubDeployer{resp: &model.DeployResponse{
		Steps: []model.Step{
			{Step: 1, Action: "Connecting to initial VM", Status: model.StepCompleted},
			{Step: 2, Action: "Searching for ws-tsdb component", Status: model.StepFailed, Error: "Could not find ws-tsdb IP address in output"},
		},
		Error:      "ws-tsdb not found in output",
		FullOutput: "node-a 10.0.0.3\n",
	}}

	out, err := runCommand(t, deployer, "pw", "-H", "192.168.10.2", "-u", "admin", "--password-stdin")
	require.Error(t, err)

	var apiErr *utils.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 2001, apiErr.Code)
	assert.Contains(t, apiErr.Message, "2 (Searching for ws-tsdb component)")
	assert.Equal(t, "ws-tsdb not found in output", apiErr.Details)

	assert.Contains(t, out, "error: Could not find ws-tsdb IP address in output")
	assert.Contains(t, out, "node-a 10.0.0.3")
	assert.Equal(t, 22, deployer.got.Port.OrDefault())
}

func TestDeployCommand_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing host", []string{"--user", "admin", "--password-stdin"}},
		{"missing user", []string{"--host", "10.0.0.1", "--password-stdin"}},
		{"bad host", []string{"--host", "10.0.0.1;id", "--user", "admin", "--password-stdin"}},
		{"bad port", []string{"--host", "10.0.0.1", "--user", "admin", "--port", "0", "--password-stdin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deployer := &stubDeployer{}
			_, err := runCommand(t, deployer, "pw\n", tt.args...)
			assert.Error(t, err)
			assert.Nil(t, deployer.got)
		})
	}
}

func TestDeployCommand_PasswordRequired(t *testing.T) {
	deployer := &stubDeployer{}

	_, err := runCommand(t, deployer, "", "--host", "10.0.0.1", "--user", "admin", "--password-stdin")
	assert.EqualError(t, err, "empty password on stdin")

	_, err = runCommand(t, deployer, "pw\n", "--host", "10.0.0.1", "--user", "admin")
	assert.EqualError(t, err, "stdin is not a terminal, use --password-stdin")
	assert.Nil(t, deployer.got)
}
