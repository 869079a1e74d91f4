package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"proxy-deploy-backend/internal/handler"
	"proxy-deploy-backend/internal/model"
	"proxy-deploy-backend/pkg/utils"
)

type deployOptions struct {
	host          string
	user          string
	port          int
	passwordStdin bool
}

// NewDeployCommand runs one deployment in-process, without the HTTP server.
func NewDeployCommand(newDeployer func() (handler.Deployer, error)) *cobra.Command {
	opts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Discover the database VM from an initial VM and install the proxy on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, opts, newDeployer)
		},
	}

	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "initial VM address (required)")
	cmd.Flags().StringVarP(&opts.user, "user", "u", "", "SSH user name (required)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", model.DefaultSSHPort, "SSH port")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runDeploy(cmd *cobra.Command, opts *deployOptions, newDeployer func() (handler.Deployer, error)) error {
	if err := utils.ValidateHost(opts.host); err != nil {
		return utils.NewValidationError("host", err)
	}
	if err := utils.ValidatePort(opts.port); err != nil {
		return utils.NewValidationError("port", err)
	}

	password, err := readPassword(cmd, opts)
	if err != nil {
		return err
	}

	deployer, err := newDeployer()
	if err != nil {
		return err
	}

	resp := deployer.Deploy(&model.DeployRequest{
		VMIP:     opts.host,
		Username: opts.user,
		Password: password,
		Port:     model.Port(opts.port),
	})

	out := cmd.OutOrStdout()
	printTrail(out, resp)
	if resp.Success {
		fmt.Fprintln(out, resp.Message)
		return nil
	}

	failed := "deploy"
	for _, step := range resp.Steps {
		if step.Status == model.StepFailed {
			failed = fmt.Sprintf("%d (%s)", step.Step, step.Action)
		}
	}
	return utils.NewDeployError(failed, errors.New(resp.Error))
}

func readPassword(cmd *cobra.Command, opts *deployOptions) (string, error) {
	in := cmd.InOrStdin()
	if opts.passwordStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", errors.New("empty password on stdin")
		}
		return password, nil
	}

	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", errors.New("stdin is not a terminal, use --password-stdin")
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s@%s's password: ", opts.user, opts.host)
	password, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}

func printTrail(w io.Writer, resp *model.DeployResponse) {
	if resp.DeploymentID != "" {
		fmt.Fprintf(w, "deployment %s\n", resp.DeploymentID)
	}
	for _, step := range resp.Steps {
		fmt.Fprintf(w, "[%d] %-11s %s\n", step.Step, step.Status, step.Action)
		if step.Result != "" {
			fmt.Fprintf(w, "    %s\n", step.Result)
		}
		if step.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", step.Error)
		}
	}
	if resp.FullOutput != "" {
		fmt.Fprintf(w, "--- discovery output ---\n%s\n", strings.TrimRight(resp.FullOutput, "\n"))
	}
}
