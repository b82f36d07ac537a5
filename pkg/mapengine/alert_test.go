package mapengine

import "testing"

func highOnly(names ...string) RiskDataset {
	d := RiskDataset{}
	for _, n := range names {
		d[n] = RiskRecord{ThreatCount: 60, RiskLevel: RiskHigh, Trend: TrendIncreasing}
	}
	return d
}

func TestAlertFirstDatasetOnlySeeds(t *testing.T) {
	a := NewAlertSounder("")
	if got := a.Check(highOnly("Alpha")); got != nil {
		t.Fatalf("first dataset fired for %v; want none", got)
	}
	// Alpha was in the baseline, so staying high is not an escalation.
	if got := a.Check(highOnly("Alpha")); got != nil {
		t.Fatalf("unchanged high set fired for %v; want none", got)
	}
}

func TestAlertEscalationFromEmptyBaseline(t *testing.T) {
	a := NewAlertSounder("")
	if got := a.Check(RiskDataset{}); got != nil {
		t.Fatalf("empty first dataset fired for %v; want none", got)
	}
	got := a.Check(highOnly("Alpha"))
	if len(got) != 1 || got[0] != "Alpha" {
		t.Fatalf("escalation after an empty baseline = %v; want [Alpha]", got)
	}
}

func TestAlertReEscalationAfterDowngrade(t *testing.T) {
	a := NewAlertSounder("")
	a.Check(highOnly("Alpha"))
	if got := a.Check(RiskDataset{}); got != nil {
		t.Fatalf("downgrade fired for %v; want none", got)
	}
	if got := a.Check(highOnly("Alpha")); len(got) != 1 || got[0] != "Alpha" {
		t.Fatalf("re-escalation = %v; want [Alpha]", got)
	}
}
