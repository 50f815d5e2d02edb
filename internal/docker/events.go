package docker

import (
	"context"
	"time"

	eventtypes "github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"

	"github.com/pluto0x0/dragonify/internal/events"
	"github.com/pluto0x0/dragonify/pkg/logger"
)

// WatchContainerStarts subscribes to the daemon's event feed, filtered to
// container start actions, and publishes each occurrence to the bus. The
// stream is re-established with capped backoff when it fails; the loop runs
// until ctx is cancelled.
func (c *Client) WatchContainerStarts(ctx context.Context, bus *events.Bus) {
	initialDelay := 1 * time.Second
	maxDelay := 1 * time.Minute
	currentDelay := initialDelay

	f := filters.NewArgs(
		filters.Arg("type", "container"),
		filters.Arg("event", "start"),
	)

	for {
		if ctx.Err() != nil {
			return
		}

		messages, errs := c.cli.Events(ctx, eventtypes.ListOptions{Filters: f})
		logger.Info("Started container event listener")

		receiving := false
	streamLoop:
		for {
			select {
			case err := <-errs:
				if ctx.Err() != nil {
					return
				}
				logger.Error("Error in container event stream", "error", err)

				if receiving {
					currentDelay = initialDelay
				} else {
					currentDelay = time.Duration(float64(currentDelay) * 1.5)
					if currentDelay > maxDelay {
						currentDelay = maxDelay
					}
				}
				break streamLoop

			case msg := <-messages:
				if !receiving {
					receiving = true
					currentDelay = initialDelay
					logger.Debug("Receiving container events")
				}

				if msg.Type != eventtypes.ContainerEventType || msg.Action != eventtypes.ActionStart {
					continue
				}

				if err := bus.Publish(events.Event{
					Type:       events.EventContainerStart,
					ActorID:    msg.Actor.ID,
					Attributes: msg.Actor.Attributes,
				}); err != nil {
					logger.Warn("Failed to publish container start event", "container", msg.Actor.ID, "error", err)
				}

			case <-ctx.Done():
				return
			}
		}

		select {
		case <-time.After(currentDelay):
			logger.Info("Reconnecting to container event stream", "delay", currentDelay)
		case <-ctx.Done():
			return
		}
	}
}
