package bridge

import (
	"context"

	"github.com/pluto0x0/dragonify/internal/config"
	"github.com/pluto0x0/dragonify/internal/docker"
	"github.com/pluto0x0/dragonify/internal/events"
	"github.com/pluto0x0/dragonify/pkg/logger"
)

// Reconciler drives the startup snapshot and the event-driven convergence
// loop: provision the network, bring every eligible running container into
// the desired state, then keep doing so for each container that starts.
type Reconciler struct {
	client      *docker.Client
	cfg         *config.Config
	provisioner *Provisioner
	connector   *Connector
	injector    *Injector
	bus         *events.Bus

	ctx context.Context
}

// NewReconciler wires a reconciler from its collaborators.
func NewReconciler(ctx context.Context, client *docker.Client, cfg *config.Config, bus *events.Bus) *Reconciler {
	return &Reconciler{
		client:      client,
		cfg:         cfg,
		provisioner: NewProvisioner(client, cfg.NetworkName),
		connector:   NewConnector(client, cfg.NetworkName),
		injector:    NewInjector(client),
		bus:         bus,
		ctx:         ctx,
	}
}

// Run executes the startup sequence and then blocks until the context is
// cancelled, reacting to container start events as they arrive. The only
// fatal outcome is a failure to establish the managed network.
func (r *Reconciler) Run() error {
	ctx := r.ctx

	if err := r.provisioner.EnsureNetwork(ctx); err != nil {
		return err
	}

	if r.cfg.HostGateway.Enabled {
		gateway, err := r.provisioner.ResolveGatewayIP(ctx)
		if err != nil {
			logger.Warn("Failed to resolve network gateway, alias injection disabled for this run", "error", err)
		} else if gateway == "" {
			logger.Warn("Managed network exposes no gateway, alias injection disabled for this run",
				"network", r.cfg.NetworkName)
		} else {
			r.cfg.HostGateway.GatewayIP = gateway
			logger.Info("Resolved host gateway", "gateway", gateway, "aliases", r.cfg.HostGateway.Aliases)
		}
	}

	if err := r.snapshot(ctx); err != nil {
		return err
	}

	r.bus.Subscribe(r)
	go r.client.WatchContainerStarts(ctx, r.bus)

	<-ctx.Done()
	return nil
}

// snapshot converges every eligible container that is already running.
// Containers are processed strictly sequentially; one container's failure
// never blocks the rest.
func (r *Reconciler) snapshot(ctx context.Context) error {
	containers, err := r.client.ListContainersByLabel(ctx, docker.ComposeProjectLabel)
	if err != nil {
		return err
	}

	eligible := 0
	for _, ctr := range containers {
		if !IsEligibleContainer(ctr) {
			continue
		}
		eligible++
		r.converge(ctx, ctr)
	}

	logger.Info("Startup snapshot reconciled", "containers", len(containers), "eligible", eligible)
	return nil
}

// converge brings one container into the desired state. A container that
// is already a member only gets its aliases re-verified, which covers a
// restart of this process.
func (r *Reconciler) converge(ctx context.Context, ctr docker.Container) {
	if IsMember(ctr, r.cfg.NetworkName) {
		logger.Debug("Container already attached to managed network", "container", ctr.Name)
		r.injector.InjectAliases(ctx, ctr, r.cfg.HostGateway)
		return
	}

	r.connector.Connect(ctx, ctr)
	r.injector.InjectAliases(ctx, ctr, r.cfg.HostGateway)
}

// Handle reacts to a container start event. The event payload is not
// trusted beyond the eligibility pre-filter; the container's record is
// re-fetched by id before acting, which also makes a container already
// handled by the snapshot an idempotent skip.
func (r *Reconciler) Handle(event events.Event) error {
	if !IsManagedProject(event.Attributes[docker.ComposeProjectLabel]) {
		return nil
	}

	ctr, err := r.client.GetContainerByID(r.ctx, event.ActorID)
	if err != nil {
		return err
	}
	if ctr == nil {
		logger.Debug("Started container no longer present, skipping", "container", event.ActorID)
		return nil
	}
	if !IsEligibleContainer(*ctr) {
		return nil
	}

	r.converge(r.ctx, *ctr)
	return nil
}

// CanHandle subscribes the reconciler to container start events.
func (r *Reconciler) CanHandle(eventType events.EventType) bool {
	return eventType == events.EventContainerStart
}
