package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxy-deploy-backend/internal/model"
)

type fakeDeployer struct {
	got  *model.DeployRequest
	resp *model.DeployResponse
}

func (f *fakeDeployer) Deploy(req *model.DeployRequest) *model.DeployResponse {
	f.got = req
	return f.resp
}

type fakeTester struct {
	got *model.SSHTestRequest
}

func (f *fakeTester) TestConnection(req *model.SSHTestRequest) *model.SSHTestResponse {
	f.got = req
	return &model.SSHTestResponse{Success: true, Message: "SSH connection successful"}
}

func newEngine(deployer Deployer, tester ConnectionTester) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/deploy", NewDeployHandler(deployer).Deploy)
	r.POST("/api/ssh/test", NewSSHHandler(tester).TestConnection)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDeploy_JSONBody(t *testing.T) {
	deployer := &fakeDeployer{resp: &model.DeployResponse{
		Success:           true,
		Steps:             []model.Step{{Step: 1, Action: "Connecting to initial VM", Status: model.StepCompleted}},
		DiscoveredAddress: "10.0.0.5",
	}}
	r := newEngine(deployer, &fakeTester{})

	req := httptest.NewRequest(http.MethodPost, "/api/deploy",
		strings.NewReader(`{"vmIP":"192.168.10.2","username":"admin","password":"pw","port":"2222"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, deployer.got)
	assert.Equal(t, "192.168.10.2", deployer.got.VMIP)
	assert.Equal(t, 2222, deployer.got.Port.OrDefault())

	var body model.DeployResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "10.0.0.5", body.DiscoveredAddress)
	assert.Equal(t, model.StepCompleted, body.Steps[0].Status)
}

func TestDeploy_FormBodyDefaultsPort(t *testing.T) {
	deployer := &fakeDeployer{resp: &model.DeployResponse{}}
	r := newEngine(deployer, &fakeTester{})

	form := url.Values{"vmIP": {"vm1.lab.local"}, "username": {"admin"}, "password": {"pw"}, "port": {""}}
	req := httptest.NewRequest(http.MethodPost, "/api/deploy", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, deployer.got)
	assert.Equal(t, 22, deployer.got.Port.OrDefault())
}

func TestDeploy_FailureIsStillOK(t *testing.T) {
	deployer := &fakeDeployer{resp: &model.DeployResponse{
		Success:    false,
		Error:      "ws-tsdb not found in output",
		FullOutput: "nothing here",
	}}
	r := newEngine(deployer, &fakeTester{})

	req := httptest.NewRequest(http.MethodPost, "/api/deploy",
		strings.NewReader(`{"vmIP":"192.168.10.2","username":"admin","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fullOutput":"nothing here"`)
}

func TestDeploy_RejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing host", `{"username":"admin","password":"pw"}`},
		{"missing username", `{"vmIP":"10.0.0.1","password":"pw"}`},
		{"bad host", `{"vmIP":"10.0.0.1; reboot","username":"admin","password":"pw"}`},
		{"port out of range", `{"vmIP":"10.0.0.1","username":"admin","password":"pw","port":70000}`},
		{"port not numeric", `{"vmIP":"10.0.0.1","username":"admin","password":"pw","port":"ssh"}`},
		{"not json", `vmIP=10.0.0.1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deployer := &fakeDeployer{}
			r := newEngine(deployer, &fakeTester{})

			req := httptest.NewRequest(http.MethodPost, "/api/deploy", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := serve(r, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, deployer.got)

			var body model.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.NotZero(t, body.Code)
		})
	}
}

func TestSSHTest(t *testing.T) {
	tester := &fakeTester{}
	r := newEngine(&fakeDeployer{}, tester)

	req := httptest.NewRequest(http.MethodPost, "/api/ssh/test",
		strings.NewReader(`{"ip":"10.0.0.4","port":22,"username":"admin","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, tester.got)
	assert.Equal(t, "10.0.0.4", tester.got.IP)
	assert.Contains(t, rec.Body.String(), "SSH connection successful")
}
