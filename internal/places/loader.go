package places

import (
	"github.com/genc-murat/crystalplaces/internal/core/ports"
	"github.com/genc-murat/crystalplaces/internal/lifecycle"
)

// Load publishes maps into env and then runs the callback registered under
// callbackName, the way the maps script signals that it finished loading.
// It reports whether a callback ran.
func Load(env *lifecycle.Environment, maps ports.Maps, callbackName string) bool {
	env.SetMaps(maps)
	if callbackName == "" {
		return false
	}
	return env.Invoke(callbackName)
}
