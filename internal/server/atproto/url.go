package atproto

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/taurisky/taurisky/internal/common"
)

// NormalizeServerURL turns user input into a PDS base URL: empty selects the
// default server, a bare host gets https://, and plain http is refused unless
// allowInsecure is set (local development PDS).
func NormalizeServerURL(raw string, allowInsecure bool) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		u = common.DefaultServerURL
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	if strings.HasPrefix(u, "http://") && !allowInsecure {
		return "", fmt.Errorf("%w: server URL must use HTTPS protocol", ErrInvalidServerURL)
	}

	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidServerURL, raw)
	}
	return strings.TrimRight(u, "/"), nil
}
