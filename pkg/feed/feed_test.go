package feed

import (
	"reflect"
	"testing"
	"time"

	"github.com/osintfoundry/threat-map/pkg/mapengine"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := NewGenerator(42)
	b := NewGenerator(42)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }
	b.now = func() time.Time { return fixed }

	snapA := a.Snapshot()
	snapB := b.Snapshot()
	if !reflect.DeepEqual(snapA, snapB) {
		t.Fatal("same seed produced different snapshots")
	}
	if len(snapA) == 0 {
		t.Fatal("snapshot is empty")
	}
}

func TestGeneratorRecordBounds(t *testing.T) {
	g := NewGenerator(7)
	for i := 0; i < 200; i++ {
		rec := g.record()
		if rec.IncidentCount > rec.ThreatCount {
			t.Fatalf("incidents %d exceed threats %d", rec.IncidentCount, rec.ThreatCount)
		}
		switch rec.RiskLevel {
		case mapengine.RiskLow, mapengine.RiskMedium, mapengine.RiskHigh:
		default:
			t.Fatalf("unexpected risk level %q", rec.RiskLevel)
		}
		if len(rec.ActiveThreats) == 0 || len(rec.TopTargets) == 0 {
			t.Fatal("record missing threat or target lists")
		}
		if rec.MitigationStatus == "" {
			t.Fatal("record missing mitigation status")
		}
	}
}

func TestGeneratorMutateTouchesExisting(t *testing.T) {
	g := NewGenerator(3)
	current := g.Snapshot()
	sawExisting := false
	for i := 0; i < 20 && !sawExisting; i++ {
		for name := range g.Mutate(current) {
			if _, ok := current[name]; ok {
				sawExisting = true
			}
		}
	}
	if !sawExisting {
		t.Fatal("mutations never touched an existing country")
	}
}

func TestClientApplySnapshotAndUpdate(t *testing.T) {
	c := NewClient("ws://unused", nil)

	var last mapengine.RiskDataset
	c.OnDataset = func(d mapengine.RiskDataset) { last = d }

	snap := mapengine.RiskDataset{
		"Alpha": {ThreatCount: 5, RiskLevel: mapengine.RiskLow, Trend: mapengine.TrendStable},
		"Beta":  {ThreatCount: 60, RiskLevel: mapengine.RiskHigh, Trend: mapengine.TrendIncreasing},
	}
	if err := c.Apply(Message{Type: "snapshot", Data: snap}); err != nil {
		t.Fatal(err)
	}
	if len(last) != 2 {
		t.Fatalf("snapshot callback got %d records, want 2", len(last))
	}

	update := mapengine.RiskDataset{
		"Alpha": {ThreatCount: 30, RiskLevel: mapengine.RiskMedium, Trend: mapengine.TrendIncreasing},
		"Gamma": {ThreatCount: 2, RiskLevel: mapengine.RiskLow, Trend: mapengine.TrendStable},
	}
	if err := c.Apply(Message{Type: "update", Data: update}); err != nil {
		t.Fatal(err)
	}

	got := c.Current()
	if len(got) != 3 {
		t.Fatalf("merged dataset has %d records, want 3", len(got))
	}
	if got["Alpha"].ThreatCount != 30 {
		t.Fatalf("update did not replace Alpha, threat count %d", got["Alpha"].ThreatCount)
	}
	if got["Beta"].ThreatCount != 60 {
		t.Fatal("update clobbered untouched Beta")
	}
}

func TestClientApplyDropsInvalidRiskLevel(t *testing.T) {
	c := NewClient("ws://unused", nil)
	snap := mapengine.RiskDataset{
		"Alpha": {ThreatCount: 5, RiskLevel: mapengine.RiskLow, Trend: mapengine.TrendStable},
		"Beta":  {ThreatCount: 9, RiskLevel: "critical", Trend: mapengine.TrendStable},
	}
	if err := c.Apply(Message{Type: "snapshot", Data: snap}); err != nil {
		t.Fatal(err)
	}
	got := c.Current()
	if _, ok := got["Beta"]; ok {
		t.Fatal("snapshot kept a record with an unknown risk level")
	}
	if _, ok := got["Alpha"]; !ok {
		t.Fatal("snapshot dropped a valid record")
	}

	update := mapengine.RiskDataset{
		"Alpha": {ThreatCount: 7, RiskLevel: "severe", Trend: mapengine.TrendStable},
	}
	if err := c.Apply(Message{Type: "update", Data: update}); err != nil {
		t.Fatal(err)
	}
	if c.Current()["Alpha"].ThreatCount != 5 {
		t.Fatal("update with an unknown risk level replaced a valid record")
	}
}

func TestClientApplyRejectsUnknownType(t *testing.T) {
	c := NewClient("ws://unused", nil)
	if err := c.Apply(Message{Type: "heartbeat"}); err == nil {
		t.Fatal("expected error for unknown message type")
	}
}

func TestClientUpdateBeforeSnapshot(t *testing.T) {
	c := NewClient("ws://unused", nil)
	update := mapengine.RiskDataset{
		"Alpha": {ThreatCount: 1, RiskLevel: mapengine.RiskLow, Trend: mapengine.TrendStable},
	}
	if err := c.Apply(Message{Type: "update", Data: update}); err != nil {
		t.Fatal(err)
	}
	if got := c.Current(); len(got) != 1 {
		t.Fatalf("dataset has %d records, want 1", len(got))
	}
}

func TestClientCallbackGetsCopy(t *testing.T) {
	c := NewClient("ws://unused", nil)
	var captured mapengine.RiskDataset
	c.OnDataset = func(d mapengine.RiskDataset) { captured = d }

	snap := mapengine.RiskDataset{
		"Alpha": {ThreatCount: 5, RiskLevel: mapengine.RiskLow, Trend: mapengine.TrendStable},
	}
	if err := c.Apply(Message{Type: "snapshot", Data: snap}); err != nil {
		t.Fatal(err)
	}
	captured["Alpha"] = mapengine.RiskRecord{ThreatCount: 999}
	if c.Current()["Alpha"].ThreatCount == 999 {
		t.Fatal("callback dataset aliases the client's internal state")
	}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSnapshotStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	data := mapengine.RiskDataset{
		"Alpha": {
			ThreatCount:      12,
			IncidentCount:    4,
			RiskLevel:        mapengine.RiskMedium,
			Trend:            mapengine.TrendIncreasing,
			LastUpdate:       "2026-03-01T12:00:00Z",
			ActiveThreats:    []string{"Botnet"},
			TopTargets:       []string{"Finance"},
			MitigationStatus: "Monitoring",
		},
		"Beta": {ThreatCount: 70, RiskLevel: mapengine.RiskHigh, Trend: mapengine.TrendStable},
	}
	if err := store.Save(data); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = OpenSnapshotStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, data) {
		t.Fatalf("loaded dataset differs:\ngot  %+v\nwant %+v", got, data)
	}
}

func TestSnapshotStoreOverwrite(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSnapshotStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	first := mapengine.RiskDataset{"Alpha": {ThreatCount: 1, RiskLevel: mapengine.RiskLow, Trend: mapengine.TrendStable}}
	second := mapengine.RiskDataset{"Alpha": {ThreatCount: 9, RiskLevel: mapengine.RiskHigh, Trend: mapengine.TrendIncreasing}}
	if err := store.Save(first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got["Alpha"].ThreatCount != 9 {
		t.Fatalf("second save did not overwrite, threat count %d", got["Alpha"].ThreatCount)
	}
}
