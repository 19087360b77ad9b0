package constants

import "time"

const (
	AppName            = "menuboard"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/menuboard"
	DefaultStatePath   = DefaultConfigDir + "/state.db"
	DefaultServerDB    = DefaultConfigDir + "/menu.db"
	DefaultAPIURL      = "http://localhost:8080"
	DefaultListenAddr  = ":8080"
	Version            = "v0.3.0"

	// DateFormat is the calendar-day key format used by the rating ledger (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Catalog cache
	CatalogTTL = 10 * time.Minute

	// Rating quota
	QuotaLedgerKey     = "rating_quota"
	QuotaDailyLimit    = 3
	QuotaRetention     = 24 * time.Hour
	QuotaSweepInterval = 60 * time.Second

	// Transient storefront notices
	NoticeDuration = 3 * time.Second

	// Rating bounds
	MinStars = 1
	MaxStars = 5

	// Badge thresholds
	TopRatedMinAverage = 4.5
	TopRatedMinCount   = 3
	PopularMinAverage  = 4.0

	// HTTP
	DefaultHTTPTimeout = 10 * time.Second
	RequestIDHeader    = "X-Request-ID"
	DefaultRateLimit   = 5.0
	DefaultRateBurst   = 10
)
