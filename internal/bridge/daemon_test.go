package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dockerclient "github.com/docker/docker/client"
	"github.com/stretchr/testify/require"

	"github.com/pluto0x0/dragonify/internal/docker"
)

// newTestClient starts a fake Docker daemon from the given handler and
// returns a client pointed at it.
func newTestClient(t *testing.T, handler http.Handler) *docker.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	host := strings.TrimPrefix(server.URL, "http://")
	cli, err := dockerclient.NewClientWithOpts(
		dockerclient.WithHost("tcp://"+host),
		dockerclient.WithVersion("1.41"),
		dockerclient.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	return docker.NewClientWith(cli)
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// waitFor polls cond until it holds or the test deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
