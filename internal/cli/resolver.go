package cli

import (
	"fmt"

	"github.com/fetchview/fetchview/internal/metadata"
	"github.com/fetchview/fetchview/internal/schemafile"
)

// newResolver builds the metadata resolver a command will import against:
// a CUE schema snapshot when --schema is given, otherwise the live Web API
// from config, with the sqlite cache when one is configured.
//
// The returned cleanup closes the cache and must be called even on error
// paths once the resolver exists.
func newResolver(cfg *Config, schemaDir string, refresh bool) (*metadata.Resolver, func(), error) {
	noop := func() {}

	if schemaDir != "" {
		snap, err := schemafile.Load(schemaDir)
		if err != nil {
			return nil, noop, fmt.Errorf("load schema snapshot: %w", err)
		}
		return metadata.NewResolver(snap, nil), noop, nil
	}

	if cfg.APIURL == "" {
		return nil, noop, fmt.Errorf("no API URL configured; set apiUrl in the config file or pass --schema")
	}
	source, err := metadata.NewWebAPISource(cfg.APIURL, cfg.Token)
	if err != nil {
		return nil, noop, err
	}

	var cache metadata.Cache
	cleanup := noop
	if cfg.CachePath != "" {
		sqlite, err := metadata.OpenSQLiteCache(cfg.CachePath)
		if err != nil {
			return nil, noop, err
		}
		if refresh {
			if err := sqlite.Bust(); err != nil {
				sqlite.Close()
				return nil, noop, err
			}
		}
		cache = sqlite
		cleanup = func() { sqlite.Close() }
	}
	return metadata.NewResolver(source, cache), cleanup, nil
}
