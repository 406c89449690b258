package probe

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/util/command"
)

const (
	verboseFlag string = "verbose"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("probe",
		newLiveness(),
		newReadiness(),
	)
}

// localURL turns a listen address like ":8080" into a URL reachable from the same host.
func localURL(listenAddress string, path string) string {
	host := listenAddress
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}
	return "http://" + host + path
}

// probe GETs url and fails unless the server answers 200.
func probe(ctx context.Context, url string, timeout time.Duration, verbose bool) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create probe request")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to probe %s", url)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return errors.Wrap(err, "failed to read probe response")
	}

	if verbose {
		log.Info().Str("url", url).Int("status", res.StatusCode).Str("body", string(body)).Msg("Probe response")
	}

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("probe %s returned %d: %s", url, res.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
