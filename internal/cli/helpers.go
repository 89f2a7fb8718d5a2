package cli

import (
	"github.com/charmbracelet/log"

	"github.com/fkoller/seamweave/pkg/comfy"
	"github.com/fkoller/seamweave/pkg/config"
)

// loadConfig reads the config file named by the --config flag, or the
// default location when the flag is empty.
func loadConfig(flagPath *string) (config.Config, error) {
	path := *flagPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Default(), err
		}
	}
	return config.Load(path)
}

// configFilePath resolves where the config should be written.
func configFilePath(flagPath *string) (string, error) {
	if *flagPath != "" {
		return *flagPath, nil
	}
	return config.DefaultPath()
}

// newClient builds a job client from the config's server and timing
// settings. A non-empty server overrides the configured URL.
func newClient(cfg config.Config, server string, logger *log.Logger) *comfy.Client {
	if server == "" {
		server = cfg.ServerURL
	}
	return comfy.New(comfy.Config{
		ServerURL:    server,
		Timeout:      cfg.Timing.Timeout(),
		PollInterval: cfg.Timing.PollInterval(),
		MaxPollTime:  cfg.Timing.MaxPollTime(),
	}, logger)
}
