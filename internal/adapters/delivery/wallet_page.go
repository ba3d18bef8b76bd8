package delivery

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
)

const WalletPagePath = "/app-wallet"

var ErrInvalidWalletPage = errors.New("wallet page url must be an absolute http(s) url")

type ServerOption func(*Server)

// WithWalletPage sends browsers to pageURL, with the request query appended,
// instead of the built-in page. An empty pageURL keeps the built-in page.
func WithWalletPage(pageURL string) ServerOption {
	return func(s *Server) {
		s.walletPageURL = strings.TrimSpace(pageURL)
	}
}

func validateWalletPage(pageURL string) error {
	if pageURL == "" {
		return nil
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWalletPage, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidWalletPage, pageURL)
	}
	return nil
}

type walletPageData struct {
	Task         string
	RequestID    string
	Method       string
	ChainID      string
	CallbackPath string
}

func (s *Server) handleWalletPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	if query.Get("requestId") == "" {
		http.Error(w, "missing request id", http.StatusBadRequest)
		return
	}

	if s.walletPageURL != "" {
		http.Redirect(w, r, appendRawQuery(s.walletPageURL, r.URL.RawQuery), http.StatusTemporaryRedirect)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := walletPage.Execute(w, walletPageData{
		Task:         query.Get("task"),
		RequestID:    query.Get("requestId"),
		Method:       query.Get("method"),
		ChainID:      query.Get("chainId"),
		CallbackPath: CallbackPath,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("render wallet page")
	}
}

func appendRawQuery(pageURL string, rawQuery string) string {
	if rawQuery == "" {
		return pageURL
	}
	separator := "?"
	if strings.Contains(pageURL, "?") {
		separator = "&"
	}
	return pageURL + separator + rawQuery
}

// walletPage drives the wallet injected into the browser (window.ethereum)
// and posts the outcome back to the callback endpoint on the same origin.
var walletPage = template.Must(template.New("wallet").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Wallet Bridge</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 36rem; margin: 4rem auto; color: #222; }
code { background: #f2f2f2; padding: 0 .25rem; }
#status { margin-top: 2rem; font-weight: 600; }
</style>
</head>
<body>
<h1>Wallet Bridge</h1>
<p>Request <code>{{.RequestID}}</code>: {{if eq .Task "connect"}}connect on chain {{.ChainID}}{{else}}<code>{{.Method}}</code> on chain {{.ChainID}}{{end}}</p>
<p id="status">Waiting for your wallet...</p>
<script>
const query = new URLSearchParams(window.location.search);
const requestId = query.get("requestId");
const statusEl = document.getElementById("status");

function walletError(err) {
  return {
    code: err && err.code ? err.code : 0,
    message: err && err.message ? err.message : String(err),
  };
}

async function deliver(data) {
  const response = await fetch({{.CallbackPath}}, {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({requestId: requestId, data: data}),
  });
  if (!response.ok) {
    throw new Error(await response.text());
  }
}

async function connect(ethereum) {
  const accounts = await ethereum.request({method: "eth_requestAccounts"});
  const wanted = Number(query.get("chainId") || "0");
  if (wanted > 0) {
    try {
      await ethereum.request({
        method: "wallet_switchEthereumChain",
        params: [{chainId: "0x" + wanted.toString(16)}],
      });
    } catch (err) {
      console.warn("chain switch refused", err);
    }
  }
  const chainId = await ethereum.request({method: "eth_chainId"});
  return {accounts: accounts, chainId: chainId};
}

async function relay(ethereum) {
  const params = JSON.parse(query.get("params") || "[]");
  const result = await ethereum.request({method: query.get("method"), params: params});
  return {result: result === undefined ? null : result};
}

async function run() {
  const ethereum = window.ethereum;
  let data;
  if (!ethereum) {
    data = {error: "no wallet extension found in this browser"};
  } else {
    try {
      data = query.get("task") === "connect" ? await connect(ethereum) : await relay(ethereum);
    } catch (err) {
      data = {error: walletError(err)};
    }
  }

  try {
    await deliver(data);
    statusEl.textContent = data.error ? "Request failed. You can close this window." : "Done. You can close this window.";
  } catch (err) {
    statusEl.textContent = "Could not reach wb: " + err.message;
  }
}

run();
</script>
</body>
</html>
`))
