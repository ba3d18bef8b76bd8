package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)

	stdout, _, err = executeCLI(t, home, "version", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wb dev (go")
}

func TestBrowserListShowsDefaults(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "browser", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "chrome\tChrome\tgoogle-chrome")
	assert.Contains(t, stdout, "firefox\tFirefox\tfirefox")
	assert.Contains(t, stdout, "brave\tBrave\tbrave-browser")
}

func TestBrowserSetThenList(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "browser", "set", "Vivaldi", "--command", "vivaldi", "--arg", "--new-window")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Saved browser vivaldi")

	stdout, _, err = executeCLI(t, home, "browser", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "vivaldi\tvivaldi\tvivaldi --new-window")
	assert.Contains(t, stdout, "chrome\tChrome")

	_, err = os.Stat(filepath.Join(home, ".wallet-bridge", "profiles.toml"))
	require.NoError(t, err)
}

func TestBrowserSetRequiresCommand(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "browser", "set", "edge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"command\" not set")
}

func TestStatusWithoutConnections(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "browsers: 3  connected: 0")
	assert.Contains(t, stdout, "Chrome (chrome)")
	assert.Contains(t, stdout, "[idle]")
}

func TestStatusShowsCachedConnection(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConnectionFixture(home, "chrome"))

	stdout, _, err := executeCLI(t, home, "status", "--browser", "chrome")
	require.NoError(t, err)
	assert.Contains(t, stdout, "browsers: 1  connected: 1")
	assert.Contains(t, stdout, "[connected]")
	assert.Contains(t, stdout, "Polygon (chain 137, 0x89)")
	assert.Contains(t, stdout, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
}

func TestStatusConnectedOnly(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConnectionFixture(home, "chrome"))

	stdout, _, err := executeCLI(t, home, "status", "--connected")
	require.NoError(t, err)
	assert.Contains(t, stdout, "browsers: 3  connected: 1")
	assert.Contains(t, stdout, "Chrome (chrome)")
	assert.NotContains(t, stdout, "[idle]")

	stdout, _, err = executeCLI(t, home, "status", "--connected", "--json")
	require.NoError(t, err)
	var statuses []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &statuses))
	assert.Len(t, statuses, 1)
}

func TestStatusJSONOutput(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConnectionFixture(home, "chrome"))

	stdout, _, err := executeCLI(t, home, "status", "--browser", "chrome", "--json")
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"Phase\": \"connected\"")
	assert.Contains(t, stdout, "\"ChainID\": 137")
}

func TestStatusUnknownBrowser(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "status", "--browser", "netscape")
	require.ErrorIs(t, err, domain.ErrBrowserNotFound)
}

func TestConnectReusesCachedConnection(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConnectionFixture(home, "chrome"))

	stdout, _, err := executeCLI(t, home, "connect", "--browser", "chrome")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Connected on Polygon (0x89)")
	assert.Contains(t, stdout, "Accounts: 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
}

func TestReconnectWithoutCachedConnectionFails(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "connect", "--browser", "firefox", "--reconnect")
	require.ErrorIs(t, err, domain.ErrNoExistingConnection)
}

func TestConnectRejectsInvalidChain(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "connect", "--chain", "0xzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse chain id")
}

func TestDisconnectRemovesCachedConnection(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConnectionFixture(home, "chrome"))

	stdout, _, err := executeCLI(t, home, "disconnect", "--browser", "chrome")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Disconnected chrome")

	_, err = os.Stat(connectionFixturePath(home, "chrome"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = executeCLI(t, home, "connect", "--browser", "chrome", "--reconnect")
	require.ErrorIs(t, err, domain.ErrNoExistingConnection)
}

func TestSwitchChainToCachedChain(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConnectionFixture(home, "chrome"))

	stdout, _, err := executeCLI(t, home, "switch-chain", "0x89", "--browser", "chrome")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Network: Polygon (chain 137, POL)")
}

func TestRequestChainIDAnsweredLocally(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConnectionFixture(home, "chrome"))

	stdout, _, err := executeCLI(t, home, "request", "eth_chainId", "--browser", "chrome")
	require.NoError(t, err)
	assert.Equal(t, "\"0x89\"\n", stdout)
}

func TestRequestRejectsMalformedParams(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "request", "eth_call", "{not-an-array}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "params must be a JSON array")
}

func TestRequestWithoutConnectionFailsFast(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "request", "eth_sendTransaction", `[{"to":"0xdef"}]`, "--browser", "chrome")
	require.ErrorIs(t, err, domain.ErrNoExistingConnection)
}

func TestParseParamsKeepsLargeIntegers(t *testing.T) {
	params, err := parseParams(`[12345678901234567891, 1.5, "0xabc", {"value": 9007199254740993}]`)
	require.NoError(t, err)

	encoded, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, `[12345678901234567891, 1.5, "0xabc", {"value": 9007199254740993}]`, string(encoded))
	assert.Contains(t, string(encoded), "12345678901234567891")
	assert.Contains(t, string(encoded), "9007199254740993")
}

func TestParseParamsRejectsTrailingData(t *testing.T) {
	_, err := parseParams(`[1] [2]`)
	require.Error(t, err)

	_, err = parseParams(`{"to":"0xdef"}`)
	require.Error(t, err)
}

func TestDeliverForwardsCallbackToDeliveryServer(t *testing.T) {
	home := t.TempDir()

	received := make(chan domain.Delivery, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/callback", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var d domain.Delivery
		assert.NoError(t, json.Unmarshal(body, &d))
		received <- d
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("WB_DELIVERY_LISTEN", strings.TrimPrefix(srv.URL, "http://"))

	_, _, err := executeCLI(t, home, "deliver", `walletbridge://wallet-connection?requestId=req-1&data=%7B%22result%22%3A%220x1%22%7D`)
	require.NoError(t, err)

	d := <-received
	assert.Equal(t, "req-1", d.RequestID)
	assert.JSONEq(t, `{"result":"0x1"}`, string(d.Data))
}

func TestDeliverRejectsForeignLinks(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "deliver", "walletbridge://elsewhere?requestId=req-1&data=%7B%7D")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected callback target")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("WB_STATE_BACKEND", "file")

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func connectionFixturePath(home string, browser string) string {
	return filepath.Join(home, ".wallet-bridge", "state", "wallet-bridge", browser, "connection")
}

func writeConnectionFixture(home string, browser string) error {
	path := connectionFixturePath(home, browser)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	state := `version = 1
accounts = ["0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"]
chain_id = 137
`
	return os.WriteFile(path, []byte(state), 0o600)
}
