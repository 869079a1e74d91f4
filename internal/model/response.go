package model

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// Step is one stage of a deployment as reported back to the caller.
type Step struct {
	Step   int        `json:"step"`
	Action string     `json:"action"`
	Status StepStatus `json:"status"`
	Result string     `json:"result,omitempty"`
	Output string     `json:"output,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// DeployResponse is the final outcome of one deployment attempt. Steps is the
// trail of how far the deployment got; on failure it ends with the failed step.
type DeployResponse struct {
	Success           bool   `json:"success"`
	DeploymentID      string `json:"deploymentId"`
	Steps             []Step `json:"steps"`
	DiscoveredAddress string `json:"discoveredAddress,omitempty"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
	FullOutput        string `json:"fullOutput,omitempty"`
}

type SSHTestResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
