// Package backend creates decoder backends from configuration.
package backend

import (
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/videoview/internal/app/playback"
	"github.com/osa030/videoview/internal/infra/config"
	"github.com/osa030/videoview/internal/infra/simulator"
)

// TypeSimulated selects the simulated decoder.
const TypeSimulated = "simulated"

// Constructor builds a Player from backend settings and init options.
type Constructor func(settings map[string]any, options []string) (playback.Player, error)

var constructors = map[string]Constructor{
	TypeSimulated: func(settings map[string]any, options []string) (playback.Player, error) {
		return simulator.NewFromSettings(settings, options...)
	},
}

// Types returns the supported backend types, sorted.
func Types() []string {
	types := make([]string, 0, len(constructors))
	for t := range constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewPlayerFromConfig creates the configured backend player.
func NewPlayerFromConfig(cfg *config.Config) (playback.Player, error) {
	zlog.Debug().Msgf("creating backend: type=%s settings=%+v options=%v", cfg.Backend.Type, cfg.Backend.Settings, cfg.Player.Options)

	newPlayer, ok := constructors[cfg.Backend.Type]
	if !ok {
		return nil, errors.Newf("unsupported backend type: %s", cfg.Backend.Type)
	}

	p, err := newPlayer(cfg.Backend.Settings, cfg.Player.Options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create backend (type %s)", cfg.Backend.Type)
	}

	zlog.Info().Msgf("backend created: type=%s", cfg.Backend.Type)
	return p, nil
}
