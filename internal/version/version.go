// ABOUTME: Version information for the voice relay binaries
// ABOUTME: Reported by -version and in the client User-Agent
package version

const (
	Version = "0.1.0"
	Product = "voice-relay"
)

// UserAgent is sent by the client on the websocket upgrade
func UserAgent() string {
	return Product + "/" + Version
}
