package bridge

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluto0x0/dragonify/internal/config"
	"github.com/pluto0x0/dragonify/internal/events"
)

// fakeReconcileDaemon serves the endpoints the reconciler touches and
// records the mutating calls.
type fakeReconcileDaemon struct {
	mu         sync.Mutex
	containers string // JSON array returned for label-filtered listings
	byID       map[string]string
	connected  []string // container ids from connect calls
	execs      []string // container ids from exec creations
}

func (d *fakeReconcileDaemon) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1.41/networks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"Id":"net1","Name":"dragonify-apps","Driver":"bridge"}]`))
	})
	mux.HandleFunc("GET /v1.41/networks/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Id":"net1","Name":"dragonify-apps","IPAM":{"Config":[{"Subnet":"172.30.0.0/16","Gateway":"172.30.0.1"}]}}`))
	})

	mux.HandleFunc("GET /v1.41/containers/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		filterArg := r.URL.Query().Get("filters")
		if strings.Contains(filterArg, `"id"`) {
			for id, body := range d.byID {
				if strings.Contains(filterArg, id) {
					_, _ = w.Write([]byte("[" + body + "]"))
					return
				}
			}
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(d.containers))
	})

	mux.HandleFunc("POST /v1.41/networks/{name}/connect", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Container string `json:"Container"`
		}
		_ = jsonDecode(r, &body)
		d.mu.Lock()
		d.connected = append(d.connected, body.Container)
		d.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /v1.41/containers/{id}/exec", func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		d.execs = append(d.execs, r.PathValue("id"))
		d.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Id":"exec1"}`))
	})
	mux.HandleFunc("POST /v1.41/exec/{id}/start", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /v1.41/exec/{id}/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Running":false,"ExitCode":0}`))
	})

	return mux
}

const (
	eligibleUnattached = `{"Id":"c1","Names":["/ix-myapp-web-1"],"Labels":{"com.docker.compose.project":"ix-myapp","com.docker.compose.service":"web"},"HostConfig":{"NetworkMode":"bridge"},"NetworkSettings":{"Networks":{"bridge":{}}}}`
	eligibleMember     = `{"Id":"c2","Names":["/ix-blog-db-1"],"Labels":{"com.docker.compose.project":"ix-blog","com.docker.compose.service":"db"},"HostConfig":{"NetworkMode":"bridge"},"NetworkSettings":{"Networks":{"bridge":{},"dragonify-apps":{}}}}`
	ineligible         = `{"Id":"c3","Names":["/other-app-1"],"Labels":{"com.docker.compose.project":"other","com.docker.compose.service":"app"},"HostConfig":{"NetworkMode":"bridge"},"NetworkSettings":{"Networks":{"bridge":{}}}}`
)

func newTestReconciler(t *testing.T, daemon *fakeReconcileDaemon) *Reconciler {
	t.Helper()

	client := newTestClient(t, daemon.handler())
	cfg := &config.Config{
		NetworkName: "dragonify-apps",
		HostGateway: config.HostGatewayConfig{
			Enabled: true,
			Aliases: []string{config.DefaultHostGatewayAlias},
		},
	}
	return NewReconciler(context.Background(), client, cfg, events.NewBus(10))
}

func TestReconciler_Snapshot(t *testing.T) {
	daemon := &fakeReconcileDaemon{
		containers: "[" + eligibleUnattached + "," + eligibleMember + "," + ineligible + "]",
	}
	r := newTestReconciler(t, daemon)

	gateway, err := r.provisioner.ResolveGatewayIP(context.Background())
	require.NoError(t, err)
	r.cfg.HostGateway.GatewayIP = gateway

	require.NoError(t, r.snapshot(context.Background()))

	// Only the unattached eligible container gets connected; the member is
	// skipped, the foreign project ignored entirely.
	assert.Equal(t, []string{"c1"}, daemon.connected)

	// Alias injection runs for both eligible containers, including the
	// already-attached one (re-verification after a daemon restart).
	assert.Equal(t, []string{"c1", "c2"}, daemon.execs)
}

func TestReconciler_Handle_ConnectsStartedContainer(t *testing.T) {
	daemon := &fakeReconcileDaemon{
		byID: map[string]string{"c1": eligibleUnattached},
	}
	r := newTestReconciler(t, daemon)
	r.cfg.HostGateway.GatewayIP = "172.30.0.1"

	err := r.Handle(events.Event{
		Type:       events.EventContainerStart,
		ActorID:    "c1",
		Attributes: map[string]string{"com.docker.compose.project": "ix-myapp"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, daemon.connected)
	assert.Equal(t, []string{"c1"}, daemon.execs)
}

func TestReconciler_Handle_SkipsAlreadyMember(t *testing.T) {
	// The snapshot may have attached the container before its start event
	// arrives; the re-fetched record makes the second pass an inject-only.
	daemon := &fakeReconcileDaemon{
		byID: map[string]string{"c2": eligibleMember},
	}
	r := newTestReconciler(t, daemon)
	r.cfg.HostGateway.GatewayIP = "172.30.0.1"

	err := r.Handle(events.Event{
		Type:       events.EventContainerStart,
		ActorID:    "c2",
		Attributes: map[string]string{"com.docker.compose.project": "ix-blog"},
	})

	require.NoError(t, err)
	assert.Empty(t, daemon.connected)
	assert.Equal(t, []string{"c2"}, daemon.execs)
}

func TestReconciler_Handle_IgnoresForeignProjects(t *testing.T) {
	daemon := &fakeReconcileDaemon{}
	r := newTestReconciler(t, daemon)

	err := r.Handle(events.Event{
		Type:       events.EventContainerStart,
		ActorID:    "c3",
		Attributes: map[string]string{"com.docker.compose.project": "other"},
	})

	require.NoError(t, err)
	assert.Empty(t, daemon.connected)
	assert.Empty(t, daemon.execs)
}

func TestReconciler_Handle_ToleratesVanishedContainer(t *testing.T) {
	daemon := &fakeReconcileDaemon{byID: map[string]string{}}
	r := newTestReconciler(t, daemon)

	err := r.Handle(events.Event{
		Type:       events.EventContainerStart,
		ActorID:    "gone",
		Attributes: map[string]string{"com.docker.compose.project": "ix-myapp"},
	})

	require.NoError(t, err)
	assert.Empty(t, daemon.connected)
}

func TestReconciler_Run_ReconcilesThenWaits(t *testing.T) {
	daemon := &fakeReconcileDaemon{
		containers: "[" + eligibleUnattached + "]",
	}

	client := newTestClient(t, daemon.handler())
	cfg := &config.Config{
		NetworkName: "dragonify-apps",
		HostGateway: config.HostGatewayConfig{
			Enabled: true,
			Aliases: []string{config.DefaultHostGatewayAlias},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := events.NewBus(10)
	bus.Start()
	defer func() { _ = bus.Stop() }()

	r := NewReconciler(ctx, client, cfg, bus)

	done := make(chan error, 1)
	go func() { done <- r.Run() }()

	waitFor(t, func() bool {
		daemon.mu.Lock()
		defer daemon.mu.Unlock()
		return len(daemon.connected) == 1
	})

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, "172.30.0.1", cfg.HostGateway.GatewayIP)
	assert.Equal(t, []string{"c1"}, daemon.connected)
}

func TestReconciler_Run_FailsWhenNetworkCannotBeEstablished(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.41/networks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("POST /v1.41/networks/create", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)
	cfg := &config.Config{NetworkName: "dragonify-apps"}
	r := NewReconciler(context.Background(), client, cfg, events.NewBus(10))

	assert.Error(t, r.Run())
}

func TestReconciler_CanHandle(t *testing.T) {
	r := &Reconciler{}
	assert.True(t, r.CanHandle(events.EventContainerStart))
	assert.False(t, r.CanHandle(events.EventType("container.die")))
}
