// Package version provides version information for the zentro-oracle binary.
package version

// Version is the current version of zentro-oracle.
const Version = "0.3.0"

// AgentString returns the agent string sent with outbound RPC requests.
// Format: zentro-oracle/v{version}
func AgentString() string {
	return "zentro-oracle/v" + Version
}
