package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureSeeder_GenerateFeatures(t *testing.T) {
	seeder := NewFeatureSeeder(nil, 7)
	features := seeder.GenerateFeatures(2, 3, 4)
	require.NotEmpty(t, features)

	perProduct := map[string]map[string]int{}
	for _, f := range features {
		assert.Contains(t, []string{"Apple", "Samsung"}, f.Brand)
		assert.True(t, f.ID >= 1 && f.ID <= 3, "id %d", f.ID)
		assert.True(t, f.SubNumber >= 1 && f.SubNumber <= 4, "sub number %d", f.SubNumber)

		key := fmt.Sprintf("%s/%d", f.Brand, f.ID)
		if perProduct[key] == nil {
			perProduct[key] = map[string]int{}
		}
		perProduct[key][f.Country]++
	}

	assert.Len(t, perProduct, 6)
	for key, countries := range perProduct {
		assert.True(t, len(countries) >= 2 && len(countries) <= 5, "%s ships to %d countries", key, len(countries))
	}
}

func TestFeatureSeeder_SameSeedSameFeatures(t *testing.T) {
	a := NewFeatureSeeder(nil, 42).GenerateFeatures(3, 2, 3)
	b := NewFeatureSeeder(nil, 42).GenerateFeatures(3, 2, 3)
	assert.Equal(t, a, b)
}

func TestFeatureSeeder_CapsBrands(t *testing.T) {
	features := NewFeatureSeeder(nil, 1).GenerateFeatures(50, 1, 1)

	seen := map[string]bool{}
	for _, f := range features {
		seen[f.Brand] = true
		assert.Equal(t, 1, f.SubNumber)
	}
	assert.Len(t, seen, len(brands))
}

func TestGetPresetConfig(t *testing.T) {
	testCases := map[SeedPreset][3]int{
		PresetSmall:  {2, 10, 5},
		PresetLarge:  {10, 100, 15},
		PresetXLarge: {10, 500, 20},
		"unknown":    {5, 50, 10},
	}
	for preset, want := range testCases {
		b, p, f := GetPresetConfig(preset)
		assert.Equal(t, want, [3]int{b, p, f}, string(preset))
	}
}
