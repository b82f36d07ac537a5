// Command risk-feed serves a synthetic country risk feed over websocket.
// Viewers connect to /v1/ws, send a subscribe message, receive a full
// snapshot, and then periodic delta updates.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/osintfoundry/threat-map/pkg/feed"
	"github.com/osintfoundry/threat-map/pkg/mapengine"
)

var (
	addrFlag     = flag.String("addr", ":8090", "Listen address")
	intervalFlag = flag.Duration("interval", 5*time.Second, "Delay between update broadcasts")
	seedFlag     = flag.Int64("seed", 0, "Generator seed (0 uses the current time)")
	geoipFlag    = flag.String("geoip", "", "Path to a MaxMind country database for incident attribution (optional)")
)

type server struct {
	gen      *feed.Generator
	resolver *feed.Resolver

	mu      sync.Mutex
	current mapengine.RiskDataset
	clients map[*websocket.Conn]bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &server{
		gen:     feed.NewGenerator(seed),
		clients: map[*websocket.Conn]bool{},
	}
	s.current = s.gen.Snapshot()

	if *geoipFlag != "" {
		resolver, err := feed.OpenResolver(*geoipFlag)
		if err != nil {
			log.Fatalf("Failed to open GeoIP database: %v", err)
		}
		defer resolver.Close()
		s.resolver = resolver
		log.Printf("Incident attribution enabled via %s", *geoipFlag)
	}

	go s.broadcastLoop(*intervalFlag)

	http.HandleFunc("/v1/ws", s.handleWS)
	log.Printf("Risk feed listening on %s (seed %d, %d countries)", *addrFlag, seed, len(s.current))
	log.Fatal(http.ListenAndServe(*addrFlag, nil))
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade error: %v", err)
		return
	}

	// The first frame must be a subscribe request.
	var sub struct {
		Type string `json:"type"`
		Data struct {
			Stream string `json:"stream"`
		} `json:"data"`
	}
	if err := conn.ReadJSON(&sub); err != nil || sub.Type != "subscribe" || sub.Data.Stream != "risk" {
		log.Printf("Rejecting client %s: bad subscribe", conn.RemoteAddr())
		conn.Close()
		return
	}

	s.mu.Lock()
	snapshot := s.current.Clone()
	s.clients[conn] = true
	s.mu.Unlock()

	if err := conn.WriteJSON(feed.Message{Type: "snapshot", Data: snapshot}); err != nil {
		s.drop(conn)
		return
	}
	log.Printf("Client subscribed: %s", conn.RemoteAddr())

	// Drain the connection so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if s.clients[conn] {
		delete(s.clients, conn)
		log.Printf("Client disconnected: %s", conn.RemoteAddr())
	}
	s.mu.Unlock()
	conn.Close()
}

func (s *server) broadcastLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		delta := s.gen.Mutate(s.current)
		s.attributeIncidents(delta)
		for name, rec := range delta {
			s.current[name] = rec
		}
		conns := make([]*websocket.Conn, 0, len(s.clients))
		for conn := range s.clients {
			conns = append(conns, conn)
		}
		s.mu.Unlock()

		raw, err := json.Marshal(feed.Message{Type: "update", Data: delta})
		if err != nil {
			log.Printf("Marshal error: %v", err)
			continue
		}
		for _, conn := range conns {
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				s.drop(conn)
			}
		}
	}
}

// attributeIncidents simulates incident sightings from random IPs and
// bumps the counters of whichever delta countries they resolve to.
func (s *server) attributeIncidents(delta mapengine.RiskDataset) {
	if s.resolver == nil {
		return
	}
	for i := 0; i < 10; i++ {
		ip := net.ParseIP(s.gen.RandomIP())
		name, err := s.resolver.CountryName(ip)
		if err != nil || name == "" {
			continue
		}
		if rec, ok := delta[name]; ok {
			rec.IncidentCount++
			rec.LastUpdate = time.Now().UTC().Format(time.RFC3339)
			delta[name] = rec
		}
	}
}
