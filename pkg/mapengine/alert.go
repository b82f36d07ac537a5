package mapengine

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/hajimehoshi/ebiten/v2/audio"
	mp3 "github.com/hajimehoshi/go-mp3"
)

const alertSampleRate = 44100

// AlertSounder plays a short audio cue whenever a country newly escalates
// to high risk. It is entirely optional: with no sound directory it does
// nothing, and audio failures only log.
type AlertSounder struct {
	dir      string
	ctx      *audio.Context
	cue      []byte
	prevHigh map[string]bool
	seeded   bool
	loaded   bool
}

func NewAlertSounder(dir string) *AlertSounder {
	return &AlertSounder{dir: dir, prevHigh: make(map[string]bool)}
}

// Check compares the dataset's high-risk set against the previous one and
// fires the cue for escalations, returning the escalated names. The first
// dataset only seeds the baseline, even when no country is high yet.
func (a *AlertSounder) Check(data RiskDataset) []string {
	high := make(map[string]bool)
	for name, rec := range data {
		if rec.RiskLevel == RiskHigh {
			high[name] = true
		}
	}
	if !a.seeded {
		a.seeded = true
		a.prevHigh = high
		return nil
	}

	var escalated []string
	for name := range high {
		if !a.prevHigh[name] {
			escalated = append(escalated, name)
			log.Printf("[alert] %s escalated to high risk", name)
		}
	}
	a.prevHigh = high
	if len(escalated) > 0 {
		a.play()
	}
	return escalated
}

func (a *AlertSounder) play() {
	if a.dir == "" {
		return
	}
	if !a.loaded {
		a.load()
	}
	if a.cue == nil {
		return
	}
	if a.ctx == nil {
		a.ctx = audio.NewContext(alertSampleRate)
	}
	p := a.ctx.NewPlayerFromBytes(a.cue)
	p.Play()
}

// load decodes the first mp3 found under the sound directory once.
func (a *AlertSounder) load() {
	a.loaded = true
	var path string
	err := filepath.Walk(a.dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == "" && !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".mp3") {
			path = p
		}
		return nil
	})
	if err != nil || path == "" {
		if err != nil {
			log.Printf("[alert] failed to read sound directory: %v", err)
		}
		return
	}
	f, err := os.Open(path)
	if err != nil {
		log.Printf("[alert] open %s: %v", path, err)
		return
	}
	defer f.Close()

	if meta, err := tag.ReadFrom(f); err == nil && meta.Title() != "" {
		log.Printf("[alert] using cue %q from %s", meta.Title(), filepath.Base(path))
	}
	if _, err := f.Seek(0, 0); err != nil {
		log.Printf("[alert] seek %s: %v", path, err)
		return
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		log.Printf("[alert] decode %s: %v", path, err)
		return
	}
	buf := make([]byte, 0, dec.Length())
	chunk := make([]byte, 32*1024)
	for {
		n, err := dec.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	a.cue = buf
}
