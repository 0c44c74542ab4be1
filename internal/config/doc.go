// Package config loads and saves the printlink configuration file.
//
// The file is YAML and lives in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/printlink/config.yaml or $HOME/.config/printlink/config.yaml
//   - macOS: $HOME/.config/printlink/config.yaml
//   - Windows: %LOCALAPPDATA%\printlink\config.yaml
//
// A missing file is not an error: Load returns Default. Keys left out of the
// file keep their default values, so a file may contain only overrides:
//
//	version: 1
//	discovery:
//	  cidr: 10.0.0.0/23
//	  tie_break: highest-address
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	probe, err := discovery.NewProbe(cfg.ProbeConfig(), prober, sender)
//
// # Thread Safety
//
// Save writes through a temporary file and a rename, guarded by a mutex, so
// a crash never leaves a half-written file.
package config
