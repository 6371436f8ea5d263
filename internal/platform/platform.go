// Package platform maps configuration onto a concrete market platform
// adapter. Selection is by name, so swapping platforms is a config edit,
// not a code change.
package platform

import (
	"fmt"

	"github.com/avidalm/betbench/config"
	"github.com/avidalm/betbench/internal/adapters/manifold"
	"github.com/avidalm/betbench/internal/adapters/omen"
	"github.com/avidalm/betbench/internal/adapters/polymarket"
	"github.com/avidalm/betbench/internal/ports"
)

// FromConfig builds the adapter named in the platform config.
func FromConfig(cfg *config.Config) (ports.MarketPlatform, error) {
	p := cfg.Platform
	switch p.Name {
	case manifold.PlatformName:
		return manifold.New(p.BaseURL, p.APIKey), nil
	case polymarket.PlatformName:
		return polymarket.New(p.BaseURL, "", p.APIKey, cfg.SettleTimeout()), nil
	case omen.PlatformName:
		return omen.New(p.RPCURL, p.BaseURL, p.PrivateKey, cfg.SettleTimeout())
	}
	return nil, fmt.Errorf("platform.FromConfig: unknown platform %q", p.Name)
}
