package gateway

import (
	"context"
	"fmt"

	"storefront/internal/services/gateway/wompi"
)

// Factory creates gateway instances based on provider type.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// CreateGateway creates a gateway instance for the given provider.
func (f *Factory) CreateGateway(ctx context.Context, provider Provider, config interface{}) (Interface, error) {
	switch provider {
	case ProviderWompi:
		wompiConfig, ok := config.(*wompi.Config)
		if !ok {
			return nil, fmt.Errorf("invalid wompi config type, expected *wompi.Config")
		}
		return NewWompiAdapter(ctx, wompiConfig)

	case ProviderStripe:
		return nil, fmt.Errorf("stripe gateway provider not implemented yet")

	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", provider)
	}
}

// GetSupportedProviders returns the list of usable providers.
func (f *Factory) GetSupportedProviders() []Provider {
	return []Provider{
		ProviderWompi,
	}
}
