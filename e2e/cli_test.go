package e2e_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaza-world/plaza/internal/admin"
	"github.com/plaza-world/plaza/internal/factory"
	"github.com/plaza-world/plaza/internal/protocol"
	"github.com/plaza-world/plaza/internal/testutil"
)

const adminToken = "e2e-admin-token"

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "plazactl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/plazactl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", adminToken,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "PLAZA_TOKEN_FILE=/nonexistent")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "could not find project root")
		dir = parent
	}
}

type e2eEnv struct {
	runner *cliRunner
	app    *factory.App
}

func newE2EEnv(t *testing.T) *e2eEnv {
	t.Helper()

	app, err := factory.New(factory.Config{Logger: testutil.NopLogger()})
	require.NoError(t, err)

	router := admin.NewRouter(admin.RouterConfig{
		Logger:     testutil.NopLogger(),
		Token:      adminToken,
		Moderation: app.Moderation,
		Processor:  app.Processor,
		Auth:       app.Auth,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &e2eEnv{
		runner: newCLIRunner(t, srv.URL),
		app:    app,
	}
}

func TestHealthCommand(t *testing.T) {
	env := newE2EEnv(t)

	out, err := env.runner.run("health")
	require.NoError(t, err, out)
	assert.Contains(t, out, "ok")
}

func TestWordBanLifecycle(t *testing.T) {
	env := newE2EEnv(t)

	out, err := env.runner.run("words", "ban", "grape", "--full")
	require.NoError(t, err, out)

	out, err = env.runner.run("words", "list")
	require.NoError(t, err, out)

	var list struct {
		Words []struct {
			Word    string `json:"word"`
			FullBan bool   `json:"full_ban"`
		} `json:"words"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Words, 1)
	assert.Equal(t, "grape", list.Words[0].Word)
	assert.True(t, list.Words[0].FullBan)

	out, err = env.runner.run("words", "unban", "grape")
	require.NoError(t, err, out)

	// Unbanning twice fails with the API error
	out, err = env.runner.run("words", "unban", "grape")
	require.Error(t, err)
	assert.Contains(t, out, "BANNED_WORD_NOT_FOUND")
}

func TestIPBanKicksPlayer(t *testing.T) {
	env := newE2EEnv(t)

	_, err := env.app.Processor.Connect(context.Background(), "10.0.0.1", protocol.ConnectPayload{Name: "Alice"})
	require.NoError(t, err)

	out, err := env.runner.run("ips", "ban", "10.0.0.1")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"kicked": true`)

	out, err = env.runner.run("players")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"count": 0`)
}

func TestStrictModeCommand(t *testing.T) {
	env := newE2EEnv(t)

	out, err := env.runner.run("strict", "on")
	require.NoError(t, err, out)
	assert.True(t, env.app.Moderation.StrictMode())

	out, err = env.runner.run("strict")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"enabled": true`)
}

func TestBadTokenRejected(t *testing.T) {
	env := newE2EEnv(t)

	cmd := exec.Command(env.runner.binaryPath,
		"--server", env.runner.serverURL,
		"--token", "wrong",
		"--output", "json",
		"words", "list")
	cmd.Env = append(os.Environ(), "PLAZA_TOKEN_FILE=/nonexistent")
	output, err := cmd.CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(output), "UNAUTHORIZED")
}
