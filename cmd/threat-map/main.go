package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/osintfoundry/threat-map/pkg/feed"
	"github.com/osintfoundry/threat-map/pkg/geo"
	"github.com/osintfoundry/threat-map/pkg/mapengine"
)

const defaultWorldURL = "https://raw.githubusercontent.com/datasets/geo-countries/master/data/countries.geojson"

var (
	headlessFlag   = flag.Bool("headless", false, "Run without a local window (Xvfb rendering active)")
	fullscreenFlag = flag.Bool("fullscreen", false, "Start in fullscreen mode")
	renderWidth    = flag.Int("width", 1280, "Internal rendering width")
	renderHeight   = flag.Int("height", 720, "Internal rendering height")
	windowWidth    = flag.Int("window-width", 1280, "Initial window width (non-headless only)")
	windowHeight   = flag.Int("window-height", 720, "Initial window height (non-headless only)")
	tpsFlag        = flag.Int("tps", 60, "Ticks per second (engine updates)")
	worldURLFlag   = flag.String("world-url", defaultWorldURL, "Country boundary GeoJSON source")
	cacheDirFlag   = flag.String("cache-dir", "", "Directory for cached downloads (default: <data-dir>/cache)")
	dataDirFlag    = flag.String("data-dir", "data", "Directory for cached downloads and snapshots")
	feedURLFlag    = flag.String("feed", "", "Risk feed websocket URL (e.g. ws://localhost:8090/v1/ws)")
	projectionFlag = flag.String("projection", "naturalEarth", "Initial projection (naturalEarth, mercator, equirectangular, robinson, winkel3, eckert4, orthographic)")
	themeFlag      = flag.String("theme", "dark", "Color theme: dark or light")
	soundDirFlag   = flag.String("alert-sounds", "", "Directory of mp3 cues played on risk escalation (optional)")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	kind, err := geo.ParseKind(*projectionFlag)
	if err != nil {
		log.Fatalf("Invalid projection: %v", err)
	}
	cacheDir := *cacheDirFlag
	if cacheDir == "" {
		cacheDir = filepath.Join(*dataDirFlag, "cache")
	}

	engine := mapengine.NewEngine(mapengine.Config{
		Width:         *renderWidth,
		Height:        *renderHeight,
		Projection:    kind,
		Theme:         mapengine.ThemeName(*themeFlag),
		AlertSoundDir: *soundDirFlag,
	})
	engine.OnCountrySelect = func(name string, rec mapengine.RiskRecord) {
		log.Printf("Selected %s: %d threats, %d incidents, %s risk", name, rec.ThreatCount, rec.IncidentCount, rec.RiskLevel)
	}
	engine.OnError = func(err error) {
		log.Printf("Engine error: %v", err)
	}

	if err := engine.LoadWorldFrom(*worldURLFlag, cacheDir); err != nil {
		// The engine is in its terminal state now; keep running so the
		// window shows the error banner instead of exiting silently.
		log.Printf("Failed to load world geometry: %v", err)
	}

	if *feedURLFlag != "" {
		store, err := feed.OpenSnapshotStore(filepath.Join(*dataDirFlag, "snapshot"))
		if err != nil {
			log.Printf("Warning: snapshot store unavailable: %v", err)
			store = nil
		} else {
			defer store.Close()
		}

		client := feed.NewClient(*feedURLFlag, store)
		if store != nil {
			if warm, err := store.Load(); err == nil && len(warm) > 0 {
				log.Printf("Warm start with %d persisted country records", len(warm))
				client.Seed(warm)
				engine.SetRiskData(warm)
			}
		}
		// The feed callback runs on the Listen goroutine; the queue hands
		// datasets to the game tick.
		client.OnDataset = engine.QueueRiskData
		go client.Listen()
	}

	ebiten.SetTPS(*tpsFlag)
	if *headlessFlag {
		log.Println("Running in HEADLESS mode (Rendering active).")
		if err := ebiten.RunGame(engine); err != nil {
			log.Fatal(err)
		}
		return
	}

	ebiten.SetWindowSize(*windowWidth, *windowHeight)
	ebiten.SetWindowTitle("Threat Map")
	ebiten.SetFullscreen(*fullscreenFlag)
	if err := ebiten.RunGame(engine); err != nil {
		log.Fatal(err)
	}
}
