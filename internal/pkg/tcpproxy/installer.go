// Package tcpproxy renders the remote shell sequence that (re)installs the
// containerized TCP proxy on the database host.
package tcpproxy

import (
	"embed"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aymerick/raymond"

	"proxy-deploy-backend/pkg/utils"
)

const installTemplatePath = "templates/install.sh.hbs"

//go:embed templates/*.hbs
var templates embed.FS

type Params struct {
	ArtifactURL     string
	Image           string
	ContainerName   string
	Network         string
	DatabaseAddress string
	ProxyPort       int
	SudoCreate      bool
}

func (p Params) Validate() error {
	u, err := url.Parse(p.ArtifactURL)
	if err != nil || u.Scheme == "" || u.Host == "" || path.Base(u.Path) == "/" || path.Base(u.Path) == "." {
		return fmt.Errorf("artifact URL must be an absolute URL naming a file: %q", p.ArtifactURL)
	}

	fields := []struct {
		name  string
		value string
	}{
		{"artifact URL", p.ArtifactURL},
		{"image", p.Image},
		{"network", p.Network},
		{"database address", p.DatabaseAddress},
	}
	for _, f := range fields {
		if err := utils.ValidateShellSafe(f.name, f.value); err != nil {
			return err
		}
	}

	if err := utils.ValidateContainerName(p.ContainerName); err != nil {
		return err
	}
	return utils.ValidatePort(p.ProxyPort)
}

// artifactFile is the name curl -O saves the download under.
func (p Params) artifactFile() string {
	u, _ := url.Parse(p.ArtifactURL)
	return path.Base(u.Path)
}

// Installer holds the rendered install sequence. Every sub-command is joined
// with &&, so the exit code of the whole script is the one of the first
// failing sub-command. Stop and remove tolerate a missing container, which
// makes the sequence safe to re-run on a host that already has the proxy.
type Installer struct {
	params   Params
	commands []string
}

func NewInstaller(params Params) (*Installer, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid proxy parameters: %w", err)
	}

	source, err := templates.ReadFile(installTemplatePath)
	if err != nil {
		return nil, err
	}

	tpl, err := raymond.Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("parse install template: %w", err)
	}

	rendered, err := tpl.Exec(map[string]interface{}{
		"artifactURL":     params.ArtifactURL,
		"artifactFile":    params.artifactFile(),
		"containerName":   params.ContainerName,
		"image":           params.Image,
		"network":         params.Network,
		"databaseAddress": params.DatabaseAddress,
		"proxyPort":       params.ProxyPort,
		"sudoCreate":      params.SudoCreate,
	})
	if err != nil {
		return nil, fmt.Errorf("render install template: %w", err)
	}

	var commands []string
	for _, line := range strings.Split(rendered, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			commands = append(commands, line)
		}
	}

	return &Installer{
		params:   params,
		commands: commands,
	}, nil
}

func (i *Installer) Commands() []string {
	return append([]string(nil), i.commands...)
}

func (i *Installer) Script() string {
	return strings.Join(i.commands, " && ")
}

func (i *Installer) ContainerName() string {
	return i.params.ContainerName
}
