package utils

import (
	"fmt"
	"math/rand"
	"time"

	"pnodedash/models"
)

const (
	MockNodeCount       = 241
	MockActiveNodeCount = 65
)

var (
	mockLocations = []string{"New York, US", "London, UK", "Tokyo, JP", "Frankfurt, DE", "Singapore, SG", "Sydney, AU", "Toronto, CA", "Amsterdam, NL"}
	mockVersions  = []string{"1.2.3", "1.2.4", "1.2.5", "1.3.0", "1.3.1"}
)

// MockNodeGenerator builds the synthetic dataset shown when live data is
// unavailable. It is not safe for concurrent use; build one per request.
type MockNodeGenerator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewMockNodeGenerator seeds from the clock when seed is 0.
func NewMockNodeGenerator(seed int64) *MockNodeGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MockNodeGenerator{
		rnd: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Generate returns MockNodeCount rows; the first MockActiveNodeCount are active.
func (g *MockNodeGenerator) Generate() []models.PNode {
	nodes := make([]models.PNode, 0, MockNodeCount)
	nowMS := g.now().UnixMilli()

	for i := 0; i < MockNodeCount; i++ {
		isActive := i < MockActiveNodeCount

		// Uptime: 100K-900K s active, 50K-350K s inactive
		var uptime, blocks, latency int64
		if isActive {
			uptime = g.rnd.Int63n(800000) + 100000
			blocks = g.rnd.Int63n(10000) + 1000
			latency = g.rnd.Int63n(200) + 50
		} else {
			uptime = g.rnd.Int63n(300000) + 50000
			latency = g.rnd.Int63n(500) + 200
		}
		lastVote := nowMS - g.rnd.Int63n(1000000)
		location := mockLocations[g.rnd.Intn(len(mockLocations))]

		status := models.StatusInactive
		if isActive {
			status = models.StatusActive
		}

		nodes = append(nodes, models.PNode{
			Pubkey:         fmt.Sprintf("EcTqAgBWJ8x4AB2AKcjLMF8k1j4HHPF2017%03d...", i),
			IP:             fmt.Sprintf("192.168.%d.%d", i/255, i%255+1),
			Port:           8080,
			Version:        mockVersions[g.rnd.Intn(len(mockVersions))],
			LastVote:       &lastVote,
			Status:         status,
			Uptime:         &uptime,
			BlocksProduced: &blocks,
			Latency:        &latency,
			Location:       &location,
		})
	}

	return nodes
}
