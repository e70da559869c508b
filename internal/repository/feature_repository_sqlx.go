package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/locvowork/excelmerge/internal/domain"
	"github.com/locvowork/excelmerge/internal/repository/builder"
)

var featureColumns = []string{"id", "brand", "country", "content", "sub_number"}

// FeatureRepository manages feature database operations
type FeatureRepository struct {
	db *sqlx.DB
}

// NewFeatureRepository creates a new repository
func NewFeatureRepository(db *sqlx.DB) domain.FeatureRepository {
	return &FeatureRepository{db: db}
}

// List retrieves features matching the filter
func (r *FeatureRepository) List(ctx context.Context, filter domain.FeatureFilter) ([]domain.Feature, error) {
	query, args := listFeaturesQuery(filter)

	features := []domain.Feature{}
	if err := r.db.SelectContext(ctx, &features, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	return features, nil
}

func listFeaturesQuery(filter domain.FeatureFilter) (string, []interface{}) {
	b := builder.NewSQLBuilder().
		Select(featureColumns...).
		From("feature")
	if len(filter.Brands) > 0 {
		b.Where("brand = ANY(?)", pq.Array(filter.Brands))
	}
	return b.OrderBy("brand", "id", "country", "sub_number").
		Limit(filter.Limit).
		Build()
}
