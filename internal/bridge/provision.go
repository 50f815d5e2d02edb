package bridge

import (
	"context"
	"fmt"

	"github.com/pluto0x0/dragonify/internal/docker"
	"github.com/pluto0x0/dragonify/pkg/logger"
)

// Provisioner makes sure the managed network exists and resolves its
// gateway address.
type Provisioner struct {
	client      *docker.Client
	networkName string
}

// NewProvisioner creates a provisioner for the named network.
func NewProvisioner(client *docker.Client, networkName string) *Provisioner {
	return &Provisioner{client: client, networkName: networkName}
}

// EnsureNetwork creates the internal bridge network unless exactly one
// network of that name already exists. Creation failure is fatal to the
// caller; nothing works without the network.
func (p *Provisioner) EnsureNetwork(ctx context.Context) error {
	networks, err := p.client.ListNetworksByName(ctx, p.networkName)
	if err != nil {
		return fmt.Errorf("failed to look up network %s: %w", p.networkName, err)
	}

	if len(networks) == 1 {
		logger.Debug("Managed network already exists", "network", p.networkName, "id", networks[0].ID)
		return nil
	}

	if _, err := p.client.CreateInternalNetwork(ctx, p.networkName); err != nil {
		return err
	}
	return nil
}

// ResolveGatewayIP returns the managed network's gateway address, or ""
// when the network exposes none. An unresolved gateway disables alias
// injection for the run but is not an error.
func (p *Provisioner) ResolveGatewayIP(ctx context.Context) (string, error) {
	gateway, err := p.client.InspectNetworkGateway(ctx, p.networkName)
	if err != nil {
		return "", err
	}
	return gateway, nil
}
