package environment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"
)

// InstallRequest describes one invocation of the dependency install step.
type InstallRequest struct {
	// Host selects where the command runs, bash://localhost/ or ssh://host/.
	Host string
	// Credentials names the scy secret used for ssh hosts.
	Credentials string
	// Dir is the working directory, typically the environment root.
	Dir string
	// Command is the fully expanded installer command.
	Command   string
	Env       map[string]string
	TimeoutMs int
}

// InstallResult carries the captured output and exit status of the install
// command.
type InstallResult struct {
	Stdout string
	Stderr string
	Status int
}

// Installer runs the dependency installation step of a build.
type Installer interface {
	Run(ctx context.Context, request *InstallRequest) (*InstallResult, error)
	Close(ctx context.Context) error
}

// goshInstaller executes install commands through viant/gosh, caching one
// shell session per host.
type goshInstaller struct {
	sessions map[string]*gosh.Service
	mux      sync.Mutex
}

// NewInstaller returns the default gosh backed installer.
func NewInstaller() Installer {
	return &goshInstaller{sessions: make(map[string]*gosh.Service)}
}

// Run executes the install command and returns its captured output; a
// non-zero status is reported in the result, not as an error.
func (i *goshInstaller) Run(ctx context.Context, request *InstallRequest) (*InstallResult, error) {
	session, err := i.getSession(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to get installer session: %w", err)
	}
	if request.Dir != "" {
		if _, _, err = session.Run(ctx, fmt.Sprintf("cd %s", request.Dir)); err != nil {
			return nil, fmt.Errorf("failed to change directory: %w", err)
		}
	}
	timeoutMs := request.TimeoutMs
	if timeoutMs == 0 {
		timeoutMs = 300000
	}
	stdout, status, err := session.Run(ctx, request.Command, runner.WithTimeout(timeoutMs))
	result := &InstallResult{Stdout: stdout, Status: status}
	if status != 0 {
		if stdout == "" && err != nil {
			result.Stderr = err.Error()
		} else {
			result.Stderr = stdout
		}
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// getSession retrieves an existing session or creates a new one
func (i *goshInstaller) getSession(ctx context.Context, request *InstallRequest) (*gosh.Service, error) {
	host := request.Host
	if host == "" {
		host = "bash://localhost/"
	}

	i.mux.Lock()
	defer i.mux.Unlock()

	if session, ok := i.sessions[host]; ok {
		return session, nil
	}

	envOptions := []runner.Option{}
	if len(request.Env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(request.Env))
	}

	var session *gosh.Service
	var err error
	if url.Host(host) == "localhost" {
		session, err = gosh.New(ctx, local.New(envOptions...))
	} else {
		config, cErr := i.sshConfig(ctx, request)
		if cErr != nil {
			return nil, fmt.Errorf("failed to get SSH config: %w", cErr)
		}
		sshHost := url.Host(host)
		if !strings.Contains(sshHost, ":") {
			sshHost += ":22"
		}
		session, err = gosh.New(ctx, rssh.New(sshHost, config, envOptions...))
	}
	if err != nil {
		return nil, err
	}
	i.sessions[host] = session
	return session, nil
}

// sshConfig creates an SSH config from the request's scy credentials.
func (i *goshInstaller) sshConfig(ctx context.Context, request *InstallRequest) (*ssh.ClientConfig, error) {
	credentials := request.Credentials
	if credentials == "" {
		credentials = "localhost"
	}
	secrets := secret.New()
	generic, err := secrets.GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

// Close releases all sessions held by this installer.
func (i *goshInstaller) Close(ctx context.Context) error {
	i.mux.Lock()
	defer i.mux.Unlock()
	var errs []string
	for id, session := range i.sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("failed to close session %s: %v", id, err))
		}
	}
	i.sessions = make(map[string]*gosh.Service)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %s", strings.Join(errs, "; "))
	}
	return nil
}
