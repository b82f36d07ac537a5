package feed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/biter777/countries"

	"github.com/osintfoundry/threat-map/pkg/mapengine"
)

var threatFamilies = []string{
	"Malware",
	"Botnet",
	"Phishing",
	"CommandControl",
	"Reconnaissance",
	"Exploitation",
	"Persistence",
	"LateralMovement",
	"DataExfiltration",
}

var targetSectors = []string{
	"Finance",
	"Energy",
	"Healthcare",
	"Government",
	"Telecom",
	"Manufacturing",
	"Retail",
	"Education",
}

var mitigationStatuses = []string{
	"Monitoring",
	"Containment",
	"Remediation",
	"Resolved",
}

// Generator produces synthetic per-country risk datasets for demos and
// tests. A fixed seed gives a reproducible sequence.
type Generator struct {
	rng   *rand.Rand
	names []string
	now   func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		names: countryNames(),
		now:   time.Now,
	}
}

// countryNames resolves real country names from the ISO registry so the
// generated keys line up with world geometry names.
func countryNames() []string {
	var names []string
	for _, cc := range countries.All() {
		name := cc.String()
		if name == "" || name == countries.Unknown.String() {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Snapshot builds a full dataset covering a random subset of countries.
func (g *Generator) Snapshot() mapengine.RiskDataset {
	data := mapengine.RiskDataset{}
	n := 30 + g.rng.Intn(40)
	for i := 0; i < n; i++ {
		name := g.names[g.rng.Intn(len(g.names))]
		data[name] = g.record()
	}
	return data
}

// Mutate returns a delta touching a handful of countries: mostly ones
// already present, occasionally a fresh country entering the dataset.
func (g *Generator) Mutate(current mapengine.RiskDataset) mapengine.RiskDataset {
	delta := mapengine.RiskDataset{}
	existing := make([]string, 0, len(current))
	for name := range current {
		existing = append(existing, name)
	}
	n := 1 + g.rng.Intn(5)
	for i := 0; i < n; i++ {
		var name string
		if len(existing) > 0 && g.rng.Intn(4) != 0 {
			name = existing[g.rng.Intn(len(existing))]
		} else {
			name = g.names[g.rng.Intn(len(g.names))]
		}
		delta[name] = g.record()
	}
	return delta
}

func (g *Generator) record() mapengine.RiskRecord {
	threats := g.rng.Intn(80)
	incidents := g.rng.Intn(threats + 1)

	var level mapengine.RiskLevel
	switch {
	case threats > 50:
		level = mapengine.RiskHigh
	case threats > 20:
		level = mapengine.RiskMedium
	default:
		level = mapengine.RiskLow
	}

	trends := []mapengine.Trend{mapengine.TrendIncreasing, mapengine.TrendStable, mapengine.TrendDecreasing}
	return mapengine.RiskRecord{
		ThreatCount:      threats,
		IncidentCount:    incidents,
		RiskLevel:        level,
		Trend:            trends[g.rng.Intn(len(trends))],
		LastUpdate:       g.now().UTC().Format(time.RFC3339),
		ActiveThreats:    g.pick(threatFamilies, 1+g.rng.Intn(4)),
		TopTargets:       g.pick(targetSectors, 1+g.rng.Intn(3)),
		MitigationStatus: mitigationStatuses[g.rng.Intn(len(mitigationStatuses))],
	}
}

// pick draws k distinct entries from vocab, preserving vocab order.
func (g *Generator) pick(vocab []string, k int) []string {
	if k > len(vocab) {
		k = len(vocab)
	}
	chosen := make(map[int]bool, k)
	for len(chosen) < k {
		chosen[g.rng.Intn(len(vocab))] = true
	}
	out := make([]string, 0, k)
	for i, v := range vocab {
		if chosen[i] {
			out = append(out, v)
		}
	}
	return out
}

// RandomIP yields a routable-looking IPv4 string for geolocation demos.
func (g *Generator) RandomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", 1+g.rng.Intn(222), g.rng.Intn(256), g.rng.Intn(256), 1+g.rng.Intn(254))
}
