package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
)

const (
	// ComposeProjectLabel identifies the logical application group.
	ComposeProjectLabel = "com.docker.compose.project"

	// ComposeServiceLabel identifies the role within the group.
	ComposeServiceLabel = "com.docker.compose.service"
)

// Container is a point-in-time snapshot of one runtime container. It is
// never mutated; callers re-fetch when they need current state.
type Container struct {
	ID          string
	Name        string
	Labels      map[string]string
	NetworkMode string
	Networks    []string
}

// Project returns the compose project label, or "" when absent.
func (c Container) Project() string {
	return c.Labels[ComposeProjectLabel]
}

// Service returns the compose service label, or "" when absent.
func (c Container) Service() string {
	return c.Labels[ComposeServiceLabel]
}

// ListContainersByLabel lists running containers carrying the given label.
func (c *Client) ListContainersByLabel(ctx context.Context, label string) ([]Container, error) {
	f := filters.NewArgs(filters.Arg("label", label))

	containers, err := c.cli.ContainerList(ctx, container.ListOptions{Filters: f})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]Container, 0, len(containers))
	for _, ctr := range containers {
		result = append(result, containerFromSummary(ctr))
	}
	return result, nil
}

// GetContainerByID fetches the current record for a single container. It
// returns a nil record without error when the container no longer exists.
func (c *Client) GetContainerByID(ctx context.Context, id string) (*Container, error) {
	f := filters.NewArgs(filters.Arg("id", id))

	containers, err := c.cli.ContainerList(ctx, container.ListOptions{Filters: f})
	if err != nil {
		return nil, fmt.Errorf("failed to look up container %s: %w", id, err)
	}
	if len(containers) == 0 {
		return nil, nil
	}

	record := containerFromSummary(containers[0])
	return &record, nil
}

func containerFromSummary(ctr types.Container) Container {
	// The primary name carries a leading slash.
	name := ""
	if len(ctr.Names) > 0 {
		name = strings.TrimPrefix(ctr.Names[0], "/")
	}

	var networks []string
	if ctr.NetworkSettings != nil {
		for networkName := range ctr.NetworkSettings.Networks {
			networks = append(networks, networkName)
		}
	}

	return Container{
		ID:          ctr.ID,
		Name:        name,
		Labels:      ctr.Labels,
		NetworkMode: ctr.HostConfig.NetworkMode,
		Networks:    networks,
	}
}
