package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/airaware/aqibot/internal/airquality"
	"github.com/airaware/aqibot/internal/publisher"
)

// Default city, matching the account the bot originally ran for.
const (
	defaultCity = "Delhi"
	defaultLat  = 28.704060
	defaultLon  = 77.102493
)

// DefaultSchedule posts once daily at 02:30 UTC.
const DefaultSchedule = "30 2 * * *"

type AppConfig struct {
	OpenWeatherAPIKey string
	GeminiAPIKey      string
	GeminiModel       string
	GeocoderAPIKey    string

	// Cities to post for, with per-city posting credentials.
	Locations []airquality.Location
	Twitter   map[string]publisher.Credentials // key: location key

	// Schedule is a standard 5-field cron expression, evaluated in UTC.
	Schedule string

	// DryRun composes and logs posts without publishing them.
	DryRun bool

	// HTTPTimeout applies to all outbound API calls.
	HTTPTimeout time.Duration

	// In-memory store retention.
	StoreMaxHistory int           // max number of records per city (0 = unlimited)
	StoreMaxAge     time.Duration // max age of records (0 = unlimited)

	Port string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honored when present; each run is
// expected to materialize its secrets fresh.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getenvDefault("GEMINI_MODEL", "gemini-2.0-flash")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.Schedule = getenvDefault("POST_SCHEDULE", DefaultSchedule)
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid POST_SCHEDULE: %w", err)
	}

	cfg.DryRun = getenvBool("DRY_RUN", true)

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 30) // a month of daily posts

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "720h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge
	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	cfg.Twitter = make(map[string]publisher.Credentials, len(locs))
	for _, loc := range locs {
		cfg.Twitter[loc.Key()] = loadCredentials(loc.Name)
	}

	if missing := cfg.Missing(); len(missing) > 0 {
		if cfg.DryRun && onlyTwitter(missing) {
			log.Printf("INFO: dry run without posting credentials, missing: %s", strings.Join(missing, ", "))
		} else {
			return nil, fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
		}
	}

	return cfg, nil
}

// Missing reports every required environment variable that is absent, in one
// pass, so a misconfigured deployment fails with the full list.
func (c *AppConfig) Missing() []string {
	var missing []string
	if c.OpenWeatherAPIKey == "" {
		missing = append(missing, "OPENWEATHER_API_KEY")
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	for _, loc := range c.Locations {
		creds := c.Twitter[loc.Key()]
		if creds.Complete() {
			continue
		}
		prefix := ""
		if hasPrefixedCredentials(loc.Name) {
			prefix = EnvPrefix(loc.Name) + "_"
		}
		for name, val := range map[string]string{
			"TWITTER_API_KEY":             creds.APIKey,
			"TWITTER_API_SECRET":          creds.APISecret,
			"TWITTER_ACCESS_TOKEN":        creds.AccessToken,
			"TWITTER_ACCESS_TOKEN_SECRET": creds.AccessTokenSecret,
		} {
			if val == "" {
				missing = append(missing, prefix+name)
			}
		}
	}
	return missing
}

// loadLocations parses CITIES entries of the form "Name", "Name:lat:lon".
// With no CITIES set, the default city is used.
func loadLocations() ([]airquality.Location, error) {
	raw := os.Getenv("CITIES")
	if strings.TrimSpace(raw) == "" {
		lat, lon := defaultLat, defaultLon
		return []airquality.Location{{Name: defaultCity, Lat: &lat, Lon: &lon}}, nil
	}

	var locs []airquality.Location
	seen := make(map[string]bool)

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		loc := airquality.Location{Name: strings.TrimSpace(parts[0])}
		if loc.Name == "" {
			return nil, fmt.Errorf("invalid CITIES entry %q: empty name", entry)
		}
		if seen[loc.Name] {
			return nil, fmt.Errorf("duplicate city %q in CITIES", loc.Name)
		}
		seen[loc.Name] = true

		switch len(parts) {
		case 1:
			// Coordinates resolved by geocoding at startup.
		case 3:
			lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid latitude in CITIES entry %q: %w", entry, err)
			}
			lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid longitude in CITIES entry %q: %w", entry, err)
			}
			loc.Lat = &lat
			loc.Lon = &lon
		default:
			return nil, fmt.Errorf("invalid CITIES entry %q: want Name or Name:lat:lon", entry)
		}

		locs = append(locs, loc)
	}

	if len(locs) == 0 {
		return nil, fmt.Errorf("CITIES is set but contains no cities")
	}

	return locs, nil
}

// loadCredentials resolves the 4-tuple for a city. A city-prefixed set
// (e.g. DELHI_TWITTER_API_KEY) wins over the shared unprefixed set.
func loadCredentials(city string) publisher.Credentials {
	if hasPrefixedCredentials(city) {
		prefix := EnvPrefix(city) + "_"
		return publisher.Credentials{
			APIKey:            os.Getenv(prefix + "TWITTER_API_KEY"),
			APISecret:         os.Getenv(prefix + "TWITTER_API_SECRET"),
			AccessToken:       os.Getenv(prefix + "TWITTER_ACCESS_TOKEN"),
			AccessTokenSecret: os.Getenv(prefix + "TWITTER_ACCESS_TOKEN_SECRET"),
		}
	}
	return publisher.Credentials{
		APIKey:            os.Getenv("TWITTER_API_KEY"),
		APISecret:         os.Getenv("TWITTER_API_SECRET"),
		AccessToken:       os.Getenv("TWITTER_ACCESS_TOKEN"),
		AccessTokenSecret: os.Getenv("TWITTER_ACCESS_TOKEN_SECRET"),
	}
}

func hasPrefixedCredentials(city string) bool {
	prefix := EnvPrefix(city) + "_"
	for _, name := range []string{
		"TWITTER_API_KEY",
		"TWITTER_API_SECRET",
		"TWITTER_ACCESS_TOKEN",
		"TWITTER_ACCESS_TOKEN_SECRET",
	} {
		if os.Getenv(prefix+name) != "" {
			return true
		}
	}
	return false
}

// EnvPrefix maps a city name to its environment-variable prefix:
// upper-cased, with runs of non-alphanumerics collapsed to underscores
// ("New Delhi" -> "NEW_DELHI").
func EnvPrefix(city string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToUpper(strings.TrimSpace(city)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func onlyTwitter(names []string) bool {
	for _, n := range names {
		if !strings.Contains(n, "TWITTER_") {
			return false
		}
	}
	return true
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
