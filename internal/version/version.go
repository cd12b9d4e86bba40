package version

// Version is overridden at build time with -ldflags "-X microsim/internal/version.Version=...".
var Version = "0.3.0"
