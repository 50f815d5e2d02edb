// Package docker wraps the Docker Engine API client with the narrow set of
// capabilities the daemon needs: container listing, network management,
// detached exec and the container event stream.
package docker

import (
	"fmt"

	"github.com/docker/docker/client"
)

// Client wraps the Docker API client.
type Client struct {
	cli *client.Client
}

// NewClient creates a client from the environment (DOCKER_HOST and friends),
// negotiating the API version with the daemon.
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &Client{cli: cli}, nil
}

// NewClientWith wraps an existing Docker API client (for testing).
func NewClientWith(cli *client.Client) *Client {
	return &Client{cli: cli}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.cli.Close()
}
