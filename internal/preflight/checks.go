package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"regenq/internal/cms"
	"regenq/internal/queue"
)

const (
	dialTimeout  = 2 * time.Second
	storeTimeout = 15 * time.Second
)

// CheckStore lists a single queue item to prove the store is reachable and
// accepts token.
func CheckStore(ctx context.Context, name, baseURL, token string, timeout time.Duration) Result {
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Detail: "token missing"}
	}
	if timeout <= 0 {
		timeout = storeTimeout
	}
	client, err := cms.New(baseURL, cms.WithTimeout(timeout))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := client.List(checkCtx, token, queue.ListOptions{Page: 1, PageSize: 1})
	switch {
	case err == nil:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (%d items)", client.BaseURL(), page.Pagination.Total)}
	case errors.Is(err, queue.ErrAuthenticationRequired):
		return Result{Name: name, Detail: "auth failed (check cms.token)"}
	default:
		return Result{Name: name, Detail: summarizeDialError(err)}
	}
}

// CheckListener verifies that something accepts TCP connections on addr.
func CheckListener(name, addr string) Result {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not listening", addr)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s listening", addr)}
}

// CheckEndpoint resolves the host of rawURL and opens a TCP connection to it.
// No request is sent.
func CheckEndpoint(name, rawURL string) Result {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("invalid url %q", rawURL)}
	}
	host := parsed.Host
	if parsed.Port() == "" {
		port := "80"
		if parsed.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(parsed.Hostname(), port)
	}
	result := CheckListener(name, host)
	if result.Passed {
		result.Detail = fmt.Sprintf("%s reachable", parsed.Redacted())
	}
	return result
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeDialError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (store unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (store unreachable)"
	}
	return err.Error()
}
