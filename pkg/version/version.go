// Package version provides version information for the riskfeed application.
package version

// Version is the current version of the riskfeed application.
var Version = "0.3.0"

// AgentString returns the full agent string with versioning.
// Format: riskfeed/v{version}
func AgentString() string {
	return "riskfeed/v" + Version
}
