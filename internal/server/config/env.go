package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

// parseEnv overlays environment variables onto config. Set-but-empty
// variables count as set. Unparsable booleans or durations panic.
//
//	HTTP_ADDR, GRPC_ADDR, DATABASE_URL, RUN_MIGRATIONS,
//	PRIVATE_KEY_SOURCE, PUBLIC_KEY_SOURCE, TOKEN_ISSUER, TOKEN_VALIDITY,
//	S3_REGION, S3_BASE_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY,
//	REDIS_URL, LOCATIONS_CACHE_TTL, LOG_LEVEL
//
// The key material itself is read later through the key sources, which
// default to the PRIVATE_KEY and PUBLIC_KEY variables.
func parseEnv(config *Config) {
	strs := map[string]*string{
		"HTTP_ADDR":          &config.HTTPAddr,
		"GRPC_ADDR":          &config.GRPCAddr,
		"DATABASE_URL":       &config.DatabaseDSN,
		"PRIVATE_KEY_SOURCE": &config.PrivateKeySource,
		"PUBLIC_KEY_SOURCE":  &config.PublicKeySource,
		"TOKEN_ISSUER":       &config.TokenIssuer,
		"S3_REGION":          &config.S3Region,
		"S3_BASE_ENDPOINT":   &config.S3BaseEndpoint,
		"S3_ACCESS_KEY":      &config.S3AccessKey,
		"S3_SECRET_KEY":      &config.S3SecretKey,
		"REDIS_URL":          &config.RedisURL,
		"LOG_LEVEL":          &config.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookupEnv(name); ok {
			*dst = v
		}
	}

	if v, ok := lookupEnv("RUN_MIGRATIONS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("RUN_MIGRATIONS: %w", err))
		}
		config.RunMigrations = b
	}

	durations := map[string]*time.Duration{
		"TOKEN_VALIDITY":      &config.TokenValidity,
		"LOCATIONS_CACHE_TTL": &config.LocationsCacheTTL,
	}
	for name, dst := range durations {
		if v, ok := lookupEnv(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s: %w", name, err))
			}
			*dst = d
		}
	}
}
