package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/locvowork/excelmerge/internal/domain"
	"github.com/locvowork/excelmerge/internal/logger"
	"github.com/locvowork/excelmerge/pkg/dataflow"
)

const featureSchema = `
	CREATE TABLE IF NOT EXISTS feature (
		id         BIGINT NOT NULL,
		brand      TEXT   NOT NULL,
		country    TEXT   NOT NULL,
		content    TEXT   NOT NULL,
		sub_number INT    NOT NULL,
		PRIMARY KEY (brand, id, country, sub_number)
	)
`

const insertFeatureQuery = `
	INSERT INTO feature (id, brand, country, content, sub_number)
	VALUES (:id, :brand, :country, :content, :sub_number)
	ON CONFLICT DO NOTHING
`

var (
	brands       = []string{"Apple", "Samsung", "Sony", "LG", "Panasonic", "Philips", "Dell", "HP", "Lenovo", "ASUS"}
	countries    = []string{"USA", "China", "Vietnam", "Japan", "South Korea", "Germany", "Taiwan", "Thailand", "Malaysia", "Indonesia"}
	featureNames = []string{"High Performance", "Energy Efficient", "Noise Reduction", "Smart Control", "Eco Friendly", "AI Powered", "Cloud Connected", "IoT Enabled", "Wireless", "USB-C"}
)

type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
	PresetXLarge SeedPreset = "xlarge"
)

// GetPresetConfig returns brands, products per brand and max features per country.
func GetPresetConfig(preset SeedPreset) (numBrands, numProducts, numFeatures int) {
	switch preset {
	case PresetSmall:
		return 2, 10, 5
	case PresetMedium:
		return 5, 50, 10
	case PresetLarge:
		return 10, 100, 15
	case PresetXLarge:
		return 10, 500, 20
	default:
		return 5, 50, 10
	}
}

const (
	seedBatchSize = 500
	seedWorkers   = 4
	seedRetries   = 2
)

// FeatureSeeder fills the feature table with generated demo rows.
type FeatureSeeder struct {
	db  *sqlx.DB
	rng *rand.Rand
}

func NewFeatureSeeder(db *sqlx.DB, seed int64) *FeatureSeeder {
	return &FeatureSeeder{db: db, rng: rand.New(rand.NewSource(seed))}
}

// GenerateFeatures builds features for every product of the first numBrands
// brands. Each product ships to 2-5 countries with 1..numFeatures features
// (at most 10) per country.
func (s *FeatureSeeder) GenerateFeatures(numBrands, numProductsPerBrand, numFeatures int) []domain.Feature {
	if numBrands > len(brands) {
		numBrands = len(brands)
	}
	if numFeatures < 1 {
		numFeatures = 1
	}

	var features []domain.Feature
	for b := 0; b < numBrands; b++ {
		for p := 1; p <= numProductsPerBrand; p++ {
			for _, country := range s.randomSelect(countries, s.rng.Intn(4)+2) {
				n := s.rng.Intn(numFeatures) + 1
				if n > 10 {
					n = 10
				}
				for i := 1; i <= n; i++ {
					features = append(features, domain.Feature{
						ID:        int64(p),
						Brand:     brands[b],
						Country:   country,
						Content:   featureNames[s.rng.Intn(len(featureNames))] + fmt.Sprintf(" v%d", i),
						SubNumber: i,
					})
				}
			}
		}
	}
	return features
}

// SeedData creates the feature table when missing and inserts generated features.
func (s *FeatureSeeder) SeedData(ctx context.Context, numBrands, numProductsPerBrand, numFeatures int) (int, error) {
	start := time.Now()

	if _, err := s.db.ExecContext(ctx, featureSchema); err != nil {
		return 0, fmt.Errorf("failed to create feature table: %w", err)
	}

	features := s.GenerateFeatures(numBrands, numProductsPerBrand, numFeatures)
	batches := dataflow.Batch(ctx, dataflow.From(ctx, features...), seedBatchSize)
	err := dataflow.ForEach(ctx, batches, s.insertFeatures,
		dataflow.WithWorkers(seedWorkers),
		dataflow.WithRetry(seedRetries, func(attempt int) time.Duration {
			return time.Duration(attempt) * 200 * time.Millisecond
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert features: %w", err)
	}

	logger.InfoLog(ctx, "Seeded %d features in %v", len(features), time.Since(start))
	return len(features), nil
}

// insertFeatures writes one batch in its own transaction.
func (s *FeatureSeeder) insertFeatures(ctx context.Context, features []domain.Feature) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, insertFeatureQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range features {
		if _, err := stmt.ExecContext(ctx, f); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClearData deletes every feature row.
func (s *FeatureSeeder) ClearData(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM feature")
	if err != nil {
		return 0, fmt.Errorf("failed to delete features: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.InfoLog(ctx, "Cleared %d features", n)
	return n, nil
}

func (s *FeatureSeeder) randomSelect(items []string, count int) []string {
	if count > len(items) {
		count = len(items)
	}
	result := make([]string, count)
	perm := s.rng.Perm(len(items))
	for i := 0; i < count; i++ {
		result[i] = items[perm[i]]
	}
	return result
}
