package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"os"

	"tailscale.com/tsnet"
)

// tailscalePortBase plus a topic-derived offset lets several soul-chains
// share one tailnet without colliding on a single fixed port.
const tailscalePortBase = 50000

// TailscaleTransport joins the operator's tailnet and treats every other
// node on it as a discovery candidate for the chain's topic. True
// per-topic DHT rendezvous isn't available from tsnet (no DHT library
// appears anywhere in the retrieved pack either); the topic itself still
// gates trust, since only peers holding the same mnemonic-derived
// encryption_key can decrypt anything exchanged after connect (see
// DESIGN.md).
type TailscaleTransport struct {
	srv *tsnet.Server
}

// NewTailscaleTransport configures (but does not yet start) a tsnet
// server. authKeyEnv names the environment variable holding the
// Tailscale auth key; hostname identifies this node on the tailnet.
func NewTailscaleTransport(hostname, authKeyEnv, stateDir string) *TailscaleTransport {
	return &TailscaleTransport{
		srv: &tsnet.Server{
			Hostname:  hostname,
			AuthKey:   os.Getenv(authKeyEnv),
			Dir:       stateDir,
			Ephemeral: false,
		},
	}
}

func tailscalePort(topic [32]byte) int {
	return tailscalePortBase + int(topic[0])<<8 + int(topic[1])%1000
}

func (t *TailscaleTransport) Listen(ctx context.Context, topic [32]byte) (<-chan net.Conn, error) {
	addr := fmt.Sprintf(":%d", tailscalePort(topic))
	ln, err := t.srv.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("chain: tailscale listen: %w", err)
	}

	conns := make(chan net.Conn)
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	go func() {
		defer close(conns)
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			select {
			case conns <- conn:
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
	}()
	return conns, nil
}

func (t *TailscaleTransport) Discover(ctx context.Context, topic [32]byte) ([]string, error) {
	lc, err := t.srv.LocalClient()
	if err != nil {
		return nil, fmt.Errorf("chain: tailscale local client: %w", err)
	}
	status, err := lc.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: tailscale status: %w", err)
	}

	port := tailscalePort(topic)
	var addrs []string
	for _, peer := range status.Peer {
		if !peer.Online || len(peer.TailscaleIPs) == 0 {
			continue
		}
		addrs = append(addrs, fmt.Sprintf("%s:%d", peer.TailscaleIPs[0].String(), port))
	}
	return addrs, nil
}

func (t *TailscaleTransport) Dial(ctx context.Context, addr string) (net.Conn, error) {
	return t.srv.Dial(ctx, "tcp", addr)
}

func (t *TailscaleTransport) Close() error {
	return t.srv.Close()
}

// tailscaleHostname derives a stable, non-identifying hostname from the
// topic so two nodes sharing a mnemonic don't collide on the tailnet.
func tailscaleHostname(topic [32]byte) string {
	return "soul-" + hex.EncodeToString(topic[:4])
}
