// Package constants provides shared constants for the payment-allocator application.
package constants

// Monetary constants
const (
	// MoneyScale is the number of fraction digits carried by every monetary result.
	MoneyScale = 2

	// CalculationScale is the intermediate precision used for discount factors.
	CalculationScale = 8

	// CentsPerUnit scales a monetary amount to whole cents.
	CentsPerUnit = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100

	// MaxDiscountPercent is the largest discount a payment method may carry.
	MaxDiscountPercent = 100
)

// Solver defaults
const (
	// DefaultPointsMethodID is the sentinel id of the loyalty-points wallet.
	DefaultPointsMethodID = "PUNKTY"

	// DefaultPartialPointsPercent is both the share of an order that must be paid
	// with points and the flat discount it unlocks.
	DefaultPartialPointsPercent = 10
)

// Strategy names
const (
	StrategyCardFirst   = "card-first"
	StrategyPointsFirst = "points-first"
	StrategyMixed       = "mixed"
)

// Output format constants
const (
	// OutputFormatPlain is the "<methodId> <amount>" line format
	OutputFormatPlain = "plain"

	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of config keys
	EnvPrefix = "PAYALLOC"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (1 MB)
	DefaultMaxUploadSizeBytes int64 = 1024 * 1024

	// DefaultHistoryListLimit bounds the number of runs returned by a listing
	DefaultHistoryListLimit = 50
)
