package version

// Version is the semantic version of the build. Overridden at link
// time for releases.
var Version = "0.1.0-dev"
