package docker

import (
	"context"
	"fmt"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"

	"github.com/pluto0x0/dragonify/pkg/logger"
)

// Network is a minimal view of a runtime network.
type Network struct {
	ID   string
	Name string
}

// ListNetworksByName lists networks whose name equals name exactly. The
// daemon-side name filter matches substrings, so the result is narrowed
// client-side.
func (c *Client) ListNetworksByName(ctx context.Context, name string) ([]Network, error) {
	f := filters.NewArgs(filters.Arg("name", name))

	networks, err := c.cli.NetworkList(ctx, network.ListOptions{Filters: f})
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}

	var result []Network
	for _, n := range networks {
		if n.Name == name {
			result = append(result, Network{ID: n.ID, Name: n.Name})
		}
	}
	return result, nil
}

// CreateInternalNetwork creates an internal bridge network. Internal means
// no default route out, so member containers only reach each other.
func (c *Client) CreateInternalNetwork(ctx context.Context, name string) (Network, error) {
	resp, err := c.cli.NetworkCreate(ctx, name, network.CreateOptions{
		Driver:   "bridge",
		Internal: true,
		Labels: map[string]string{
			"dragonify.managed": "true",
		},
	})
	if err != nil {
		return Network{}, fmt.Errorf("failed to create network %s: %w", name, err)
	}

	logger.Info("Network created", "network", name, "id", resp.ID)
	return Network{ID: resp.ID, Name: name}, nil
}

// InspectNetworkGateway reads the network's IPAM configuration and returns
// the first non-empty gateway address, or "" when none is configured.
func (c *Client) InspectNetworkGateway(ctx context.Context, nameOrID string) (string, error) {
	resp, err := c.cli.NetworkInspect(ctx, nameOrID, network.InspectOptions{})
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return "", fmt.Errorf("network %s not found: %w", nameOrID, err)
		}
		return "", fmt.Errorf("failed to inspect network %s: %w", nameOrID, err)
	}

	for _, ipam := range resp.IPAM.Config {
		if ipam.Gateway != "" {
			return ipam.Gateway, nil
		}
	}
	return "", nil
}

// ConnectToNetwork attaches a container to a network under the given
// aliases. Connecting an already-attached container is an error at the
// daemon level; callers must check membership first.
func (c *Client) ConnectToNetwork(ctx context.Context, networkName, containerID string, aliases []string) error {
	err := c.cli.NetworkConnect(ctx, networkName, containerID, &network.EndpointSettings{
		Aliases: aliases,
	})
	if err != nil {
		return fmt.Errorf("failed to connect container %s to network %s: %w", containerID, networkName, err)
	}

	logger.Info("Container connected to network", "container", containerID, "network", networkName, "aliases", aliases)
	return nil
}
