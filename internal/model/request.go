package model

import (
	"encoding/json"
	"fmt"

	"proxy-deploy-backend/pkg/utils"
)

const DefaultSSHPort = 22

// Port accepts a JSON number, a numeric string or an empty value, since the
// login form posts every field as a string.
type Port int

func (p *Port) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = 0
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n != 0 {
			if err := utils.ValidatePort(n); err != nil {
				return err
			}
		}
		*p = Port(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("port must be a number or a numeric string: %s", data)
	}
	n, err := utils.ParsePort(s, 0)
	if err != nil {
		return err
	}
	*p = Port(n)
	return nil
}

func (p Port) OrDefault() int {
	if p <= 0 {
		return DefaultSSHPort
	}
	return int(p)
}

// UnmarshalParam lets gin bind the port from url-encoded forms.
func (p *Port) UnmarshalParam(param string) error {
	n, err := utils.ParsePort(param, 0)
	if err != nil {
		return err
	}
	*p = Port(n)
	return nil
}

type DeployRequest struct {
	VMIP     string `json:"vmIP" form:"vmIP" binding:"required"`
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Port     Port   `json:"port" form:"port"`
}

type SSHTestRequest struct {
	IP       string `json:"ip" binding:"required"`
	Port     Port   `json:"port"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
