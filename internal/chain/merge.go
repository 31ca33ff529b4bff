package chain

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sort"
)

// kgRecord is the shape shared by both knowledge-graph record types; only
// the fields relevant to a given recordType are populated.
type kgRecord struct {
	Type         string   `json:"type"`
	Name         string   `json:"name,omitempty"`
	EntityType   string   `json:"entityType,omitempty"`
	Observations []string `json:"observations,omitempty"`
	From         string   `json:"from,omitempty"`
	To           string   `json:"to,omitempty"`
	RelationType string   `json:"relationType,omitempty"`
}

func parseKGLines(data []byte) []kgRecord {
	var out []kgRecord
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec kgRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// Trailing partial writes are discarded, not treated as
			// corruption: readers must tolerate an in-flight last line.
			continue
		}
		out = append(out, rec)
	}
	return out
}

// MergeKnowledgeGraph performs the line-based additive union required for
// knowledge-graph.jsonl: entities merge by name with a deduplicated union
// of observations, entityType filled from whichever side provides it first
// (peerID breaks a genuine disagreement deterministically); relations
// merge by the (from, to, relationType) triple and are deduplicated. No
// observation or relation already present on either side is ever dropped.
func MergeKnowledgeGraph(local, remote []byte, localPeerID, remotePeerID string) []byte {
	entities := make(map[string]*kgRecord)
	entityOrder := make([]string, 0)
	relations := make(map[string]*kgRecord)
	relationOrder := make([]string, 0)

	apply := func(recs []kgRecord, peerID string) {
		for i := range recs {
			r := recs[i]
			switch r.Type {
			case "entity":
				if existing, ok := entities[r.Name]; ok {
					existing.Observations = unionStrings(existing.Observations, r.Observations)
					if existing.EntityType == "" {
						existing.EntityType = r.EntityType
					} else if r.EntityType != "" && r.EntityType != existing.EntityType && peerID < localPeerID {
						// Deterministic tie-break on a genuine disagreement:
						// lower peerID wins, never a deletion either way.
						existing.EntityType = r.EntityType
					}
					continue
				}
				cp := r
				cp.Observations = append([]string(nil), r.Observations...)
				entities[r.Name] = &cp
				entityOrder = append(entityOrder, r.Name)
			case "relation":
				key := r.From + "\x00" + r.To + "\x00" + r.RelationType
				if _, ok := relations[key]; ok {
					continue
				}
				cp := r
				relations[key] = &cp
				relationOrder = append(relationOrder, key)
			}
		}
	}

	apply(parseKGLines(local), localPeerID)
	apply(parseKGLines(remote), remotePeerID)

	sort.Strings(entityOrder)
	sort.Strings(relationOrder)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, name := range entityOrder {
		e := entities[name]
		sort.Strings(e.Observations)
		enc.Encode(e)
	}
	for _, key := range relationOrder {
		enc.Encode(relations[key])
	}
	return buf.Bytes()
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// ClampMtime prevents a peer with a skewed clock from permanently winning
// future manifest diffs: an inbound mtime can never be later than the
// receiver's own clock.
func ClampMtime(nowMS, claimedMS int64) int64 {
	if claimedMS > nowMS {
		return nowMS
	}
	return claimedMS
}
