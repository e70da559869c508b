package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/locvowork/excelmerge/internal/config"
	"github.com/locvowork/excelmerge/internal/database"
	"github.com/locvowork/excelmerge/internal/logger"
	"github.com/spf13/cobra"
)

var (
	preset   string
	brands   int
	products int
	features int
	seed     int64
	confirm  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seeder",
		Short: "Fill the feature table with demo data",
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the feature table and insert generated features",
		RunE:  runSeed,
	}
	seedCmd.Flags().StringVar(&preset, "preset", "large", "Data preset: small, medium, large, xlarge")
	seedCmd.Flags().IntVar(&brands, "brands", 0, "Number of brands (overrides preset)")
	seedCmd.Flags().IntVar(&products, "products", 0, "Number of products per brand (overrides preset)")
	seedCmd.Flags().IntVar(&features, "features", 0, "Max features per product country (overrides preset)")
	seedCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every feature row",
		RunE:  runClear,
	}
	clearCmd.Flags().BoolVar(&confirm, "yes", false, "Confirm deleting all features")

	rootCmd.AddCommand(seedCmd, clearCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openSeeder(ctx context.Context) (*database.FeatureSeeder, func(), error) {
	if err := config.LoadEnvConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig
	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)

	db, err := database.NewPostgresDB(ctx, database.Config{
		Host:     cfg.DB_HOST,
		Port:     cfg.DB_PORT,
		User:     cfg.DB_USER,
		Password: cfg.DB_PASSWORD,
		DBName:   cfg.DB_NAME,
		SSLMode:  cfg.DB_SSL_MODE,
	})
	if err != nil {
		return nil, nil, err
	}
	return database.NewFeatureSeeder(db, seed), func() { db.Close() }, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	numBrands, numProducts, numFeatures := database.GetPresetConfig(database.SeedPreset(preset))
	if brands > 0 && products > 0 && features > 0 {
		numBrands, numProducts, numFeatures = brands, products, features
	}

	seeder, closeDB, err := openSeeder(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := seeder.SeedData(ctx, numBrands, numProducts, numFeatures)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d features (%d brands, %d products per brand)\n", n, numBrands, numProducts)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	if !confirm {
		return fmt.Errorf("refusing to delete all features without --yes")
	}

	seeder, closeDB, err := openSeeder(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := seeder.ClearData(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d features\n", n)
	return nil
}
