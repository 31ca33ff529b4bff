package chain

import (
	"context"
	"crypto/rand"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/soulproto/soul/internal/fabric"
	"github.com/soulproto/soul/internal/soullog"
	"github.com/soulproto/soul/internal/telemetry"
	"github.com/soulproto/soul/internal/tree"
)

const (
	defaultMaxInFlight   = 64
	protocolErrorWindow  = 60 * time.Second
	protocolErrorLimit   = 3
)

// peerConn tracks one live peer connection: its stream, the last manifest
// it sent, activity timestamps for health, and a bounded in-flight
// semaphore for outbound file sends.
type peerConn struct {
	id       string
	conn     net.Conn
	enc      *Encoder
	dec      *Decoder
	activity *PeerActivity
	inFlight chan struct{}

	mu            sync.Mutex
	remoteFiles   map[string]FileEntry
	errCount      int
	errWindowFrom time.Time
}

func newPeerConn(id string, conn net.Conn, maxInFlight int, now time.Time) *peerConn {
	return &peerConn{
		id:          id,
		conn:        conn,
		enc:         NewEncoder(conn),
		dec:         NewDecoder(conn),
		activity:    NewPeerActivity(now),
		inFlight:    make(chan struct{}, maxInFlight),
		remoteFiles: make(map[string]FileEntry),
	}
}

func (p *peerConn) recordProtocolError(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errWindowFrom.IsZero() || now.Sub(p.errWindowFrom) > protocolErrorWindow {
		p.errWindowFrom = now
		p.errCount = 0
	}
	p.errCount++
	return p.errCount >= protocolErrorLimit
}

// Daemon runs the Peer Chain sync loop: manifest polling, need/file
// exchange, and status publication.
type Daemon struct {
	Dir           *tree.Dir
	Transport     Transport
	EncryptionKey [32]byte
	Topic         [32]byte
	LocalPeerID   [32]byte

	PollInterval    time.Duration
	StatusInterval  time.Duration
	MaxInFlight     int

	Bus *fabric.Bus
	log *soullog.Logger

	mu          sync.Mutex
	peers       map[string]*peerConn
	since       time.Time
	totalSynced int
}

// NewDaemon constructs a Daemon with spec-default intervals and caps.
// LocalPeerID is a process-lifetime random identity; the spec's "opaque
// 32-byte public key" framing is simplified here to a random token since
// no peer authentication beyond the shared encryption_key is implemented.
func NewDaemon(dir *tree.Dir, transport Transport, encryptionKey, topic [32]byte, bus *fabric.Bus) *Daemon {
	var id [32]byte
	rand.Read(id[:])
	return &Daemon{
		Dir:            dir,
		Transport:      transport,
		EncryptionKey:  encryptionKey,
		Topic:          topic,
		LocalPeerID:    id,
		PollInterval:   5 * time.Second,
		StatusInterval: 30 * time.Second,
		MaxInFlight:    defaultMaxInFlight,
		Bus:            bus,
		log:            soullog.Default(),
		peers:          make(map[string]*peerConn),
	}
}

// Start begins accepting and dialing peers and runs the poll/status loops
// until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	d.since = time.Now()
	d.mu.Unlock()

	conns, err := d.Transport.Listen(ctx, d.Topic)
	if err != nil {
		return err
	}

	go d.acceptLoop(ctx, conns)
	go d.pollLoop(ctx)
	go d.statusLoop(ctx)
	return nil
}

func (d *Daemon) acceptLoop(ctx context.Context, conns <-chan net.Conn) {
	for conn := range conns {
		go d.handleConn(ctx, conn)
	}
}

func (d *Daemon) pollLoop(ctx context.Context) {
	interval := d.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		addrs, err := d.Transport.Discover(ctx, d.Topic)
		if err != nil {
			d.log.Warn("chain discover failed", map[string]any{"err": err.Error()})
			continue
		}
		for _, addr := range addrs {
			if d.hasPeer(addr) {
				continue
			}
			conn, err := d.Transport.Dial(ctx, addr)
			if err != nil {
				continue
			}
			go d.handleConn(ctx, conn)
		}

		d.broadcastManifest(ctx)
	}
}

func (d *Daemon) hasPeer(addr string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.peers[addr]
	return ok
}

func (d *Daemon) broadcastManifest(ctx context.Context) {
	manifest, err := Build(d.Dir)
	if err != nil {
		d.log.Warn("chain manifest build failed", map[string]any{"err": err.Error()})
		return
	}
	d.mu.Lock()
	peers := make([]*peerConn, 0, len(d.peers))
	for _, p := range d.peers {
		peers = append(peers, p)
	}
	d.mu.Unlock()

	for _, p := range peers {
		p.enc.WriteManifest(manifest)
	}
}

func (d *Daemon) handleConn(ctx context.Context, conn net.Conn) {
	now := time.Now()
	addr := conn.RemoteAddr().String()
	pc := newPeerConn(addr, conn, d.maxInFlight(), now)

	d.mu.Lock()
	d.peers[addr] = pc
	d.mu.Unlock()

	defer func() {
		conn.Close()
		d.mu.Lock()
		delete(d.peers, addr)
		d.mu.Unlock()
	}()

	if manifest, err := Build(d.Dir); err == nil {
		pc.enc.WriteManifest(manifest)
	}

	_, span := telemetry.GetTracer().StartChainSpan(ctx, ShortID(d.LocalPeerID))
	defer span.End()

	for {
		msg, err := pc.dec.Read()
		if err != nil {
			if protoErr, ok := err.(*ProtocolError); ok {
				d.log.Warn("chain protocol error", map[string]any{"peer": addr, "err": protoErr.Error()})
				if pc.recordProtocolError(time.Now()) {
					return
				}
				continue
			}
			if err != io.EOF {
				d.log.Warn("chain peer read failed", map[string]any{"peer": addr, "err": err.Error()})
			}
			return
		}

		switch msg.Type {
		case MsgManifest:
			d.onManifest(ctx, pc, msg)
		case MsgNeed:
			d.onNeed(pc, msg)
		case MsgFile:
			d.onFile(pc, msg)
		default:
			if pc.recordProtocolError(time.Now()) {
				return
			}
		}
	}
}

func (d *Daemon) maxInFlight() int {
	if d.MaxInFlight <= 0 {
		return defaultMaxInFlight
	}
	return d.MaxInFlight
}

func (d *Daemon) onManifest(ctx context.Context, pc *peerConn, msg *Message) {
	now := time.Now()
	pc.activity.RecordManifest(now)

	local, err := Build(d.Dir)
	if err != nil {
		return
	}
	remote := &Manifest{Files: msg.Files}

	pc.mu.Lock()
	for _, f := range msg.Files {
		pc.remoteFiles[f.Path] = f
	}
	pc.mu.Unlock()

	for _, path := range Diff(local, remote) {
		pc.enc.WriteNeed(path)
	}
}

func (d *Daemon) onNeed(pc *peerConn, msg *Message) {
	select {
	case pc.inFlight <- struct{}{}:
	default:
		return // at the in-flight cap; the next poll's manifest exchange will retry
	}
	defer func() { <-pc.inFlight }()

	abs := filepath.Join(d.Dir.Root, filepath.FromSlash(msg.Path))
	data, err := os.ReadFile(abs)
	if err != nil {
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		return
	}
	blob, err := EncryptBlob(d.EncryptionKey, data)
	if err != nil {
		return
	}
	if err := pc.enc.WriteFile(msg.Path, blob, info.ModTime().UnixMilli()); err == nil {
		pc.activity.RecordFileSent(time.Now())
	}
}

func (d *Daemon) onFile(pc *peerConn, msg *Message) {
	now := time.Now()
	plaintext, err := DecryptBlob(d.EncryptionKey, msg.Path, msg.Blob)
	if err != nil {
		d.log.Warn("chain auth failed, dropping file", map[string]any{"peer": pc.id, "path": msg.Path})
		return
	}

	abs := filepath.Join(d.Dir.Root, filepath.FromSlash(msg.Path))
	claimedMS := ClampMtime(now.UnixMilli(), msg.MtimeMS)

	if filepath.Base(msg.Path) == tree.KnowledgeFile {
		d.applyMergedKnowledgeGraph(abs, plaintext, pc.id)
	} else {
		if !d.shouldAcceptLWW(abs, claimedMS) {
			return
		}
		if err := tree.AtomicWriteFile(abs, plaintext, 0o644); err != nil {
			return
		}
		mtime := time.UnixMilli(claimedMS)
		os.Chtimes(abs, mtime, mtime)
	}

	pc.activity.RecordFileReceived(now)
	d.mu.Lock()
	d.totalSynced++
	d.mu.Unlock()
	if d.Bus != nil {
		d.Bus.PublishEvent(fabric.Event{Type: "sync", Source: "chain", Timestamp: now, Extra: map[string]any{"path": msg.Path, "peer": pc.id}})
	}
}

// shouldAcceptLWW implements the local-edit-wins-on-exact-tie resolution:
// a peer requests/accepts a file only when the remote is strictly newer.
func (d *Daemon) shouldAcceptLWW(abs string, claimedMS int64) bool {
	info, err := os.Stat(abs)
	if err != nil {
		return true // nothing local yet
	}
	return claimedMS > info.ModTime().UnixMilli()
}

func (d *Daemon) applyMergedKnowledgeGraph(abs string, remote []byte, remotePeerID string) {
	local, err := os.ReadFile(abs)
	if err != nil {
		local = nil
	}
	merged := MergeKnowledgeGraph(local, remote, ShortID(d.LocalPeerID), remotePeerID)
	tree.AtomicWriteFile(abs, merged, 0o644)
}

func (d *Daemon) statusLoop(ctx context.Context) {
	interval := d.StatusInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		d.writeStatus()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Daemon) writeStatus() {
	now := time.Now()
	d.mu.Lock()
	peerList := make([]PeerStatus, 0, len(d.peers))
	activities := make([]*PeerActivity, 0, len(d.peers))
	for id, p := range d.peers {
		activities = append(activities, p.activity)
		lastManifest, lastTransfer, connectedAt, sent, received := p.activity.snapshot()
		peerList = append(peerList, PeerStatus{
			ID:                   id,
			ConnectedAt:          connectedAt,
			FilesSent:            sent,
			FilesReceived:        received,
			LastSync:             lastTransfer,
			LastManifestExchange: lastManifest,
		})
	}
	since := d.since
	total := d.totalSynced
	d.mu.Unlock()

	health := Aggregate(activities, now)

	WriteStatus(d.Dir, Status{
		Active:      true,
		Health:      health.String(),
		Peers:       peerList,
		TotalSynced: total,
		Since:       since,
		LastUpdate:  now,
	})
}
