// Package bridge keeps eligible application containers attached to the
// managed internal bridge network and injects host gateway aliases into
// their /etc/hosts.
package bridge

import (
	"strings"

	"github.com/pluto0x0/dragonify/internal/config"
	"github.com/pluto0x0/dragonify/internal/docker"
)

// IsManagedProject reports whether a compose project label names a managed
// application project.
func IsManagedProject(project string) bool {
	return strings.HasPrefix(project, config.ProjectPrefix)
}

// IsEligibleContainer reports whether a container belongs to a managed
// project and so qualifies for network membership.
func IsEligibleContainer(ctr docker.Container) bool {
	return IsManagedProject(ctr.Project())
}

// IsProhibitedNetworkMode reports whether a network mode rules out a
// separate attachment. Containers in these modes share the host's or
// another container's network namespace.
func IsProhibitedNetworkMode(mode string) bool {
	return mode == "none" ||
		mode == "host" ||
		strings.HasPrefix(mode, "container:") ||
		strings.HasPrefix(mode, "service:")
}

// IsMember reports whether the container is already attached to the
// network.
func IsMember(ctr docker.Container, networkName string) bool {
	for _, name := range ctr.Networks {
		if name == networkName {
			return true
		}
	}
	return false
}

// DNSName derives the deterministic in-network name for a service of a
// project.
func DNSName(service, project string) string {
	return service + "." + project + "." + config.DNSZone
}
