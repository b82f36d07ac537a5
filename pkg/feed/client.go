package feed

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/osintfoundry/threat-map/pkg/mapengine"
)

// Message is one frame of the risk feed protocol. A "snapshot" replaces
// the local dataset; an "update" merges into it.
type Message struct {
	Type string                `json:"type"`
	Data mapengine.RiskDataset `json:"data"`
}

// Client maintains a websocket connection to a risk feed and keeps a
// merged dataset current across snapshots and deltas.
type Client struct {
	url   string
	store *SnapshotStore

	mu      sync.Mutex
	current mapengine.RiskDataset

	// OnDataset receives a copy of the merged dataset after every
	// applied message. Set before calling Listen.
	OnDataset func(mapengine.RiskDataset)
}

// NewClient builds a feed client. The store is optional; when set, every
// applied message is persisted for warm starts.
func NewClient(url string, store *SnapshotStore) *Client {
	return &Client{url: url, store: store}
}

// Seed installs an initial dataset (typically loaded from the snapshot
// store) so updates arriving before the first snapshot merge into it.
func (c *Client) Seed(data mapengine.RiskDataset) {
	c.mu.Lock()
	c.current = data.Clone()
	c.mu.Unlock()
}

// Listen connects and consumes the feed forever, reconnecting with
// exponential backoff. Run it in its own goroutine.
func (c *Client) Listen() {
	backoff := 1 * time.Second
	for {
		log.Printf("Connecting to risk feed: %s", c.url)
		conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			log.Printf("Dial error: %v. Retrying in %v...", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > 60*time.Second {
				backoff = 60 * time.Second
			}
			continue
		}
		backoff = 1 * time.Second

		subscribeMsg := `{"type": "subscribe", "data": {"stream": "risk"}}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(subscribeMsg)); err != nil {
			log.Printf("Subscribe error: %v", err)
			conn.Close()
			continue
		}

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Read error: %v. Reconnecting...", err)
				break
			}
			var msg Message
			if json.Unmarshal(raw, &msg) != nil {
				continue
			}
			if err := c.Apply(msg); err != nil {
				log.Printf("Feed message dropped: %v", err)
			}
		}
		conn.Close()
		time.Sleep(time.Second)
	}
}

// Apply merges one feed message into the current dataset and notifies
// the dataset callback. Unknown message types are rejected.
func (c *Client) Apply(msg Message) error {
	c.mu.Lock()
	switch msg.Type {
	case "snapshot":
		c.current = sanitize(msg.Data)
	case "update":
		if c.current == nil {
			c.current = mapengine.RiskDataset{}
		}
		for name, rec := range msg.Data {
			if !rec.RiskLevel.Valid() {
				continue
			}
			c.current[name] = rec
		}
	default:
		c.mu.Unlock()
		return fmt.Errorf("unknown feed message type %q", msg.Type)
	}
	merged := c.current.Clone()
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(merged); err != nil {
			log.Printf("Warning: failed to persist snapshot: %v", err)
		}
	}
	if c.OnDataset != nil {
		c.OnDataset(merged)
	}
	return nil
}

// sanitize copies a dataset, dropping records whose risk level is outside
// the known grades so a malformed feed cannot poison the fill rule.
func sanitize(d mapengine.RiskDataset) mapengine.RiskDataset {
	out := make(mapengine.RiskDataset, len(d))
	for name, rec := range d {
		if !rec.RiskLevel.Valid() {
			continue
		}
		out[name] = rec
	}
	return out
}

// Current returns a copy of the merged dataset.
func (c *Client) Current() mapengine.RiskDataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}
