package bridge

import (
	"context"

	"github.com/pluto0x0/dragonify/internal/docker"
	"github.com/pluto0x0/dragonify/pkg/logger"
)

// Connector attaches one container at a time to the managed network under
// its derived DNS name.
type Connector struct {
	client      *docker.Client
	networkName string
}

// NewConnector creates a connector for the named network.
func NewConnector(client *docker.Client, networkName string) *Connector {
	return &Connector{client: client, networkName: networkName}
}

// Connect attaches the container to the network with its DNS name as the
// sole alias. Containers in a prohibited network mode are skipped. A
// connect failure is logged and swallowed so the caller's loop moves on to
// the next container; callers must check IsMember first, Connect is not
// safe against already-attached containers.
func (c *Connector) Connect(ctx context.Context, ctr docker.Container) {
	if IsProhibitedNetworkMode(ctr.NetworkMode) {
		logger.Debug("Skipping container with prohibited network mode",
			"container", ctr.Name, "network_mode", ctr.NetworkMode)
		return
	}

	dnsName := DNSName(ctr.Service(), ctr.Project())
	if err := c.client.ConnectToNetwork(ctx, c.networkName, ctr.ID, []string{dnsName}); err != nil {
		logger.Error("Failed to connect container to managed network",
			"container", ctr.Name, "dns_name", dnsName, "error", err)
	}
}
