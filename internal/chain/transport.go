package chain

import (
	"context"
	"encoding/hex"
	"net"
)

// Transport abstracts swarm discovery and stream transport so the daemon
// can run over a plain LAN broadcast or a Tailscale tailnet without
// changing its sync logic.
type Transport interface {
	// Listen starts accepting inbound connections advertising topic and
	// returns a channel of accepted connections. Closing ctx stops
	// accepting and closes the channel.
	Listen(ctx context.Context, topic [32]byte) (<-chan net.Conn, error)
	// Discover returns dialable addresses of peers currently advertising
	// topic. It is called once per poll interval.
	Discover(ctx context.Context, topic [32]byte) ([]string, error)
	// Dial connects to a previously discovered address.
	Dial(ctx context.Context, addr string) (net.Conn, error)
	Close() error
}

// ShortID renders a peer's 32-byte public key for human-facing logs: only
// the first 8 hex chars, per spec.md.
func ShortID(pub [32]byte) string {
	return hex.EncodeToString(pub[:4])
}
