package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"requestarr/internal/appclient"
	"requestarr/internal/config"
	"requestarr/internal/mediaserver"
	"requestarr/internal/services"
)

const checkTimeout = 10 * time.Second

// Application is the part of the application client the checks use.
type Application interface {
	CurrentUser(ctx context.Context) (appclient.User, error)
	MediaServerType(ctx context.Context) (mediaserver.Type, error)
}

// CheckApplication verifies the application is reachable and accepts the
// configured API key. It also returns the media server type the application
// reports, or TypeNotConfigured when that read fails.
func CheckApplication(ctx context.Context, app Application) (Result, mediaserver.Type) {
	const name = "Application"
	if app == nil {
		return Result{Name: name, Detail: "no client"}, mediaserver.TypeNotConfigured
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	user, err := app.CurrentUser(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}, mediaserver.TypeNotConfigured
	}
	kind, err := app.MediaServerType(checkCtx)
	if err != nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("signed in as %s; main settings unavailable (%s)", user.Email, summarizeError(err))}, mediaserver.TypeNotConfigured
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("signed in as %s; media server %s", user.Email, kind)}, kind
}

// CheckMediaServer verifies the configured credentials for kind.
func CheckMediaServer(ctx context.Context, cfg *config.Config, kind mediaserver.Type) Result {
	name := "Media server"
	switch kind {
	case mediaserver.TypePlex:
		name = "Plex"
	case mediaserver.TypeJellyfin:
		name = "Jellyfin"
	case mediaserver.TypeEmby:
		name = "Emby"
	}

	verifier, err := mediaserver.NewVerifier(kind, cfg, nil)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := verifier.Verify(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
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

func summarizeError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timed out"
	case errors.Is(err, services.ErrRejected):
		return "credentials rejected"
	case errors.Is(err, services.ErrConfiguration):
		return "not configured: " + err.Error()
	case errors.Is(err, services.ErrCircuitOpen):
		return "unavailable (too many failures)"
	default:
		return err.Error()
	}
}
