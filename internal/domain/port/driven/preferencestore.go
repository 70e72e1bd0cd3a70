package driven

import (
	"context"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// PreferenceStore defines the driven port for small persisted UI preferences.
type PreferenceStore interface {
	// Get returns the stored value, or ("", nil) when unset.
	Get(ctx context.Context, scope, key string) (string, error)

	// Set inserts or replaces a preference.
	Set(ctx context.Context, pref model.Preference) error
}
