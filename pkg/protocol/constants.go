package protocol

// Directory, placeholder, and defaults used throughout tally.
const (
	// TallyDir is the user-level state directory (e.g., ~/.tally).
	TallyDir = ".tally"

	// RedactedPlaceholder replaces app or title values matched by an
	// enabled privacy rule. The original value is never persisted.
	RedactedPlaceholder = "[redacted]"

	// UncategorizedLabel is the category for apps with no mapping.
	UncategorizedLabel = "uncategorized"

	// BundleSchemaVersion is the current backup bundle format version.
	BundleSchemaVersion = 1
)

// Classifier threshold defaults, in seconds.
const (
	// DefaultIdleThreshold is the idle time after which a sample is AFK.
	DefaultIdleThreshold = 60

	// DefaultEffectiveIdleThreshold is the input recency window within
	// which active time counts as effective rather than passive.
	DefaultEffectiveIdleThreshold = 10

	// DefaultSleepGap is the sample gap beyond which the elapsed interval
	// is treated as machine suspension instead of idle time.
	DefaultSleepGap = 300
)

// DefaultSampleInterval is the sampling cadence in seconds.
const DefaultSampleInterval = 2

// DefaultTopN bounds the leaderboard in overview reports. The full grouped
// totals are still computed for remainder buckets.
const DefaultTopN = 50
