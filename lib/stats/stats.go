package stats

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/fosdem/meshview/lib/device"
	"github.com/fosdem/meshview/lib/geometry"
)

// Stats is written by the render thread and read by the API
type Stats struct {
	VertexUpload   uint64                  `json:"vertex_upload"`
	TextureUpload  uint64                  `json:"texture_upload"`
	Uptime         float64                 `json:"uptime"`
	FPS            uint64                  `json:"fps"`
	WsClients      int                     `json:"ws_clients"`
	GeometryReload uint64                  `json:"geometry_reloads"`
	Geometries     []geometry.GeometryInfo `json:"geometries"`

	mu           sync.Mutex
	frameCounter uint64
	frameTimer   time.Time
	start        time.Time
}

func New() *Stats {
	s := &Stats{}
	s.start = time.Now()
	return s
}

// Update is called once per frame. textureUpload is the running total of
// texture bytes sent to the GPU.
func (s *Stats) Update(lib *geometry.Library, textureUpload uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameCounter++
	if time.Since(s.frameTimer) > 1*time.Second {
		s.FPS = s.frameCounter
		s.frameCounter = 0
		s.frameTimer = time.Now()
		// cheap enough once a second
		if lib != nil {
			s.Geometries = lib.Snapshot()
		}
	}

	s.Uptime = float64(time.Since(s.start).Nanoseconds()) / 1e9
	s.VertexUpload = device.VertexUploadCounter
	s.TextureUpload = textureUpload
}

func (s *Stats) Reloaded() {
	s.mu.Lock()
	s.GeometryReload++
	s.mu.Unlock()
}

func (s *Stats) SetWsClients(n int) {
	s.mu.Lock()
	s.WsClients = n
	s.mu.Unlock()
}

func (s *Stats) GeometryList() []geometry.GeometryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Geometries
}

func (s *Stats) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type plain Stats
	return json.Marshal((*plain)(s))
}
