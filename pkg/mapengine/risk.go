package mapengine

// RiskLevel grades a country's current threat posture.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (l RiskLevel) Valid() bool {
	return l == RiskLow || l == RiskMedium || l == RiskHigh
}

// Trend describes where a country's activity is heading.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// RiskRecord is the per-country payload supplied by the host or feed. The
// engine never mutates records; it re-renders when a new dataset arrives.
type RiskRecord struct {
	ThreatCount      int       `json:"threat_count"`
	IncidentCount    int       `json:"incident_count"`
	RiskLevel        RiskLevel `json:"risk_level"`
	Trend            Trend     `json:"trend"`
	LastUpdate       string    `json:"last_update"`
	ActiveThreats    []string  `json:"active_threats"`
	TopTargets       []string  `json:"top_targets"`
	MitigationStatus string    `json:"mitigation_status"`
}

// RiskDataset maps country display names to their records. Keys with no
// matching geometry are ignored; countries with no key render neutrally.
type RiskDataset map[string]RiskRecord

// NoDataRecord is the zero-valued record attached to selections and
// tooltips for countries absent from the dataset.
func NoDataRecord() RiskRecord {
	return RiskRecord{
		RiskLevel:        RiskLow,
		Trend:            TrendStable,
		ActiveThreats:    []string{},
		TopTargets:       []string{},
		MitigationStatus: "N/A",
	}
}

// Clone copies the dataset so callers can hold a snapshot while the host
// keeps mutating its own copy.
func (d RiskDataset) Clone() RiskDataset {
	out := make(RiskDataset, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
