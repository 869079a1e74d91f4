package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"proxy-deploy-backend/internal/model"
	"proxy-deploy-backend/internal/pkg/discovery"
	"proxy-deploy-backend/internal/pkg/logger"
	"proxy-deploy-backend/internal/pkg/metrics"
	"proxy-deploy-backend/internal/pkg/ssh"
	"proxy-deploy-backend/internal/pkg/tcpproxy"
)

const discoveryExcerptLen = 500

const (
	stageDiscover = "discover"
	stageExtract  = "extract"
	stageInstall  = "install"
)

type Discovery struct {
	Command string
	Marker  string
}

// DeployService runs the three-stage proxy deployment: discover the database
// host from the initial VM, extract its address, install the proxy there.
// It keeps no state between deployments.
type DeployService struct {
	executor  ssh.Executor
	extractor discovery.Extractor
	installer *tcpproxy.Installer
	discovery Discovery
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewDeployService(executor ssh.Executor, extractor discovery.Extractor, installer *tcpproxy.Installer, disc Discovery, logger *logger.Logger, metrics *metrics.Metrics) *DeployService {
	return &DeployService{
		executor:  executor,
		extractor: extractor,
		installer: installer,
		discovery: disc,
		logger:    logger,
		metrics:   metrics,
	}
}

func (s *DeployService) Deploy(req *model.DeployRequest) (resp *model.DeployResponse) {
	id := uuid.NewString()
	log := s.logger.With(zap.String("deployment_id", id))
	cred := ssh.Credential{
		Host:     req.VMIP,
		Port:     req.Port.OrDefault(),
		Username: req.Username,
		Password: req.Password,
	}

	log.Info("TCP proxy deployment started",
		zap.String("initial_vm", cred.Addr()),
		zap.String("user", cred.Username),
	)

	r := &deployment{id: id, logger: log, metrics: s.metrics}
	defer func() {
		if p := recover(); p != nil {
			log.Error("deployment aborted", zap.Any("panic", p), zap.Stack("stack"))
			resp = r.fail(fmt.Sprintf("%v", p), "Deployment failed")
		}
	}()

	// 1. discover
	r.begin(stageDiscover, "Connecting to initial VM")
	discovered, err := s.execute(stageDiscover, log, cred, s.discovery.Command)
	if err != nil || !discovered.Succeeded {
		return r.fail(failureReason(discovered, err), fmt.Sprintf("Failed to execute %s", s.discovery.Command))
	}
	r.current().Output = excerpt(discovered.Stdout, discoveryExcerptLen)
	r.complete()

	// 2. extract
	r.begin(stageExtract, fmt.Sprintf("Searching for %s component", s.discovery.Marker))
	addr, found := s.extractor.ExtractAddress(discovered.Stdout, s.discovery.Marker)
	if !found {
		notFound := r.fail(
			fmt.Sprintf("Could not find %s IP address in output", s.discovery.Marker),
			fmt.Sprintf("%s not found in output", s.discovery.Marker))
		notFound.FullOutput = discovered.Stdout
		return notFound
	}
	r.current().Result = fmt.Sprintf("Found %s VM IP: %s", s.discovery.Marker, addr)
	r.complete()
	log.Info("component address found", zap.String("marker", s.discovery.Marker), zap.String("address", addr))

	// 3. install
	// A failure part way through leaves the earlier sub-commands applied;
	// there is no rollback.
	r.begin(stageInstall, fmt.Sprintf("Connecting to %s VM (%s)", s.discovery.Marker, addr))
	installed, err := s.execute(stageInstall, log, cred.WithHost(addr), s.installer.Script())
	if installed != nil {
		r.current().Output = installed.Stdout
	}
	if err != nil || !installed.Succeeded {
		return r.fail(failureReason(installed, err), "Deployment commands failed")
	}
	r.complete()

	log.Info("TCP proxy deployed", zap.String("address", addr))
	resp = r.response(true)
	resp.DiscoveredAddress = addr
	resp.Message = fmt.Sprintf("TCP Proxy successfully deployed on %s", addr)
	return resp
}

func (s *DeployService) execute(stage string, log *logger.Logger, cred ssh.Credential, command string) (*ssh.CommandResult, error) {
	log.SSHConnectionAttempt(cred)
	started := time.Now()
	result, err := s.executor.Execute(cred, command)
	s.metrics.ObserveCommand(stage, time.Since(started))
	return result, err
}

// deployment tracks the step trail of one Deploy call. Only the last step
// can be in progress.
type deployment struct {
	id      string
	stage   string
	steps   []model.Step
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func (d *deployment) begin(stage, action string) {
	d.stage = stage
	d.steps = append(d.steps, model.Step{
		Step:   len(d.steps) + 1,
		Action: action,
		Status: model.StepInProgress,
	})
	d.logger.DeploymentStep(len(d.steps), action)
}

func (d *deployment) current() *model.Step {
	return &d.steps[len(d.steps)-1]
}

func (d *deployment) complete() {
	step := d.current()
	step.Status = model.StepCompleted
	d.logger.DeploymentSuccess(step.Step, step.Action)
}

// fail marks the in-progress step failed and builds the final response.
func (d *deployment) fail(reason, message string) *model.DeployResponse {
	if len(d.steps) > 0 && d.current().Status == model.StepInProgress {
		step := d.current()
		step.Status = model.StepFailed
		step.Error = reason
		d.logger.DeploymentError(step.Step, step.Action, reason)
		d.metrics.StepFailed(d.stage)
	}

	resp := d.response(false)
	resp.Error = message
	return resp
}

func (d *deployment) response(success bool) *model.DeployResponse {
	d.metrics.DeploymentFinished(success)
	return &model.DeployResponse{
		Success:      success,
		DeploymentID: d.id,
		Steps:        d.steps,
	}
}

func failureReason(result *ssh.CommandResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
		return stderr
	}
	switch {
	case result.ExitCode != nil:
		return fmt.Sprintf("command exited with code %d", *result.ExitCode)
	case result.Signal != "":
		return fmt.Sprintf("command terminated by signal %s", result.Signal)
	default:
		return "command exited without an exit status"
	}
}

// excerpt keeps at most n bytes of s, cut on a rune boundary.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
