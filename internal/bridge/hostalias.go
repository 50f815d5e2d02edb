package bridge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pluto0x0/dragonify/internal/config"
	"github.com/pluto0x0/dragonify/internal/docker"
	"github.com/pluto0x0/dragonify/pkg/logger"
)

// shellCandidates are tried in order when running the alias script inside a
// container. Absolute and bare paths cover images with and without a sane
// PATH; images without any of these (scratch and friends) simply never get
// aliases injected.
var shellCandidates = []string{"/bin/sh", "sh", "/bin/bash", "bash"}

// BuildAliasScript returns a shell fragment that appends one
// "<gateway> <alias>" line to /etc/hosts for every alias not already
// present. The guard matches the alias as a whole token so an alias never
// false-positives on a longer name containing it, and the alias is regex
// escaped so its dots match literally. Running the script twice leaves the
// file unchanged after the first run.
func BuildAliasScript(gatewayIP string, aliases []string) string {
	lines := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		lines = append(lines, fmt.Sprintf(
			"grep -qE '(^|[[:space:]])%s([[:space:]]|$)' /etc/hosts || echo '%s %s' >> /etc/hosts",
			regexp.QuoteMeta(alias), gatewayIP, alias))
	}
	return strings.Join(lines, "\n")
}

// Injector writes host gateway aliases into containers.
type Injector struct {
	client *docker.Client
}

// NewInjector creates an injector.
func NewInjector(client *docker.Client) *Injector {
	return &Injector{client: client}
}

// InjectAliases runs the alias script inside the container, trying each
// shell candidate until one exits zero. It reports whether injection
// succeeded. Disabled feature or unresolved gateway is a silent no-op; a
// container without any usable shell degrades to a warning, never an error.
func (i *Injector) InjectAliases(ctx context.Context, ctr docker.Container, cfg config.HostGatewayConfig) bool {
	if !cfg.Enabled || cfg.GatewayIP == "" {
		return false
	}

	script := BuildAliasScript(cfg.GatewayIP, cfg.Aliases)

	for _, shell := range shellCandidates {
		err := i.client.RunDetached(ctx, ctr.ID, []string{shell, "-c", script})
		if err == nil {
			logger.Debug("Host gateway aliases injected",
				"container", ctr.Name, "shell", shell, "aliases", cfg.Aliases)
			return true
		}

		if errors.Is(err, docker.ErrExecStart) {
			logger.Debug("Shell unavailable in container, trying next candidate",
				"container", ctr.Name, "shell", shell)
			continue
		}
		logger.Debug("Alias script failed under shell",
			"container", ctr.Name, "shell", shell, "error", err)
	}

	logger.Warn("Failed to inject host gateway aliases",
		"container", ctr.Name, "aliases", cfg.Aliases)
	return false
}
