package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	JWTSecret    string

	// Matching knobs. Tolerance is an absolute amount; a zero tolerance
	// demands exact amount equality. The date window bounds how far apart a
	// payment and bank transaction may be dated and still be suggested.
	MatchAmountTolerance decimal.Decimal
	MatchDateWindowDays  int

	// ReconGapEpsilon is the largest absolute gap a session may carry and
	// still finalize. Covers sub-cent residue only.
	ReconGapEpsilon decimal.Decimal

	// RateLimit uses the limiter formatted notation, e.g. "100-M".
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("MATCH_AMOUNT_TOLERANCE", "0")
	viper.SetDefault("MATCH_DATE_WINDOW_DAYS", 7)
	viper.SetDefault("RECON_GAP_EPSILON", "0.005")
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	toleranceStr := viper.GetString("MATCH_AMOUNT_TOLERANCE")
	tolerance, err := decimal.NewFromString(toleranceStr)
	if err != nil || tolerance.IsNegative() {
		log.Printf("Warning: Invalid value for MATCH_AMOUNT_TOLERANCE ('%s'). Defaulting to 0.\n", toleranceStr)
		tolerance = decimal.Zero
	}
	cfg.MatchAmountTolerance = tolerance

	cfg.MatchDateWindowDays = viper.GetInt("MATCH_DATE_WINDOW_DAYS")
	if cfg.MatchDateWindowDays < 0 {
		log.Printf("Warning: MATCH_DATE_WINDOW_DAYS must not be negative. Defaulting to 7.\n")
		cfg.MatchDateWindowDays = 7
	}

	epsilonStr := viper.GetString("RECON_GAP_EPSILON")
	epsilon, err := decimal.NewFromString(epsilonStr)
	if err != nil || epsilon.IsNegative() {
		log.Printf("Warning: Invalid value for RECON_GAP_EPSILON ('%s'). Defaulting to 0.005.\n", epsilonStr)
		epsilon = decimal.NewFromFloat(0.005)
	}
	cfg.ReconGapEpsilon = epsilon

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
