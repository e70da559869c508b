package domain

import "context"

// FeatureRepository defines the interface for feature data access
type FeatureRepository interface {
	// List returns features ordered by brand, id, country and sub number,
	// so that equal values end up on adjacent report rows.
	List(ctx context.Context, filter FeatureFilter) ([]Feature, error)
}
