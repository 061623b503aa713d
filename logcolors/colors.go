package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"

	BrightGreen   = "\033[92m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
)

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// Middleware log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
	LogHTTP      = Cyan + "[HTTP]" + Reset
)

// Resolution pipeline log prefixes
const (
	LogRequest   = Purple + "[Request]" + Reset
	LogNormalize = BrightCyan + "[Normalize]" + Reset
	LogMapping   = BrightMagenta + "[Mapping]" + Reset
	LogSearch    = Blue + "[Search]" + Reset
	LogStrategy  = BrightBlue + "[Search:Strategy]" + Reset
	LogMatch     = Green + "[Match]" + Reset
	LogScore     = Cyan + "[Match:Score]" + Reset
	LogBestMatch = BrightGreen + "[Best Match]" + Reset
	LogFallback  = Yellow + "[Fallback]" + Reset
	LogSuccess   = Green + "[Success]" + Reset
	LogNotFound  = Yellow + "[NotFound]" + Reset
)

// Catalog and lyric decoding log prefixes
const (
	LogCatalog = Cyan + "[Catalog]" + Reset
	LogLyrics  = Blue + "[Lyrics]" + Reset
	LogYRC     = BrightBlue + "[YRC]" + Reset
	LogFilter  = BrightCyan + "[Filter]" + Reset
	LogWarning = Red + "[Warning]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// stageColors rotate across codec stage names
var stageColors = []string{
	Green, Blue, Purple, Cyan, Yellow,
	BrightGreen, BrightBlue, BrightMagenta, BrightCyan,
}

// Stage returns a colored stage label. The same name always gets the same color.
func Stage(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	return stageColors[hash%len(stageColors)] + name + Reset
}
