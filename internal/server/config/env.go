package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays Config fields from environment variables. Only variables
// that are actually set override the current values.
//
// Recognized variables:
//
//	ADDRESS             HTTP bind address
//	DATABASE_DSN        PostgreSQL DSN
//	SECRET_KEY          JWT HMAC secret
//	TOKEN_VALIDITY      identity token lifetime, hours
//	S3_ACCESS_KEY       object storage access key
//	S3_SECRET_KEY       object storage secret key
//	S3_BUCKET           default bucket name
//	S3_REGION           storage region
//	S3_BASE_ENDPOINT    storage endpoint URL
//	S3_ALLOWED_BUCKETS  comma-separated bucket override allow-list
//	URL_EXPIRATION      signed URL lifetime, seconds
//	STATIC_DIR          directory with gated pages
//	CORS_ORIGINS        comma-separated allowed origins
//	GATE_FAIL_OPEN      "true" to pass requests through on policy-store errors
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("ADDRESS"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("TOKEN_VALIDITY"); ok {
		if hours, err := strconv.Atoi(v); err == nil {
			config.TokenValidityDuration = time.Duration(hours) * time.Hour
		}
	}
	if v, ok := os.LookupEnv("S3_ACCESS_KEY"); ok {
		config.S3AccessKey = v
	}
	if v, ok := os.LookupEnv("S3_SECRET_KEY"); ok {
		config.S3SecretKey = v
	}
	if v, ok := os.LookupEnv("S3_BUCKET"); ok {
		config.S3Bucket = v
	}
	if v, ok := os.LookupEnv("S3_REGION"); ok {
		config.S3Region = v
	}
	if v, ok := os.LookupEnv("S3_BASE_ENDPOINT"); ok {
		config.S3BaseEndpoint = v
	}
	if v, ok := os.LookupEnv("S3_ALLOWED_BUCKETS"); ok {
		config.S3AllowedBuckets = splitList(v)
	}
	if v, ok := os.LookupEnv("URL_EXPIRATION"); ok {
		if seconds, err := strconv.Atoi(v); err == nil {
			config.URLExpiration = time.Duration(seconds) * time.Second
		}
	}
	if v, ok := os.LookupEnv("STATIC_DIR"); ok {
		config.StaticDir = v
	}
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("GATE_FAIL_OPEN"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.GateFailOpen = b
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
