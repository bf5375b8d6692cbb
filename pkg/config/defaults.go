package config

import "time"

// Matcher defaults.
const (
	DefaultStretchyBlocks = true
	DefaultTrimRoot       = true
	DefaultMaxResults     = 0
)

// Parser defaults.
const (
	DefaultLanguage      = "python"
	DefaultMappingFile   = ""
	DefaultMaxSourceSize = "1MB"
)

// Checker defaults.
const (
	DefaultWorkers          = 4
	DefaultTimeout          = 10 * time.Second
	DefaultPatternCacheSize = 256
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 1.0
	DefaultEnvironment  = ""
	DefaultMetricsAddr  = ""
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)
