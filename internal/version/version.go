package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/nirvanamm/nirvanamm/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/nirvanamm/nirvanamm/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/nirvanamm/nirvanamm/internal/version.Date={{.Date}}
)
