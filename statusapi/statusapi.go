// Package statusapi exposes a node's state over HTTP for operators and
// monitoring, entirely through NodeState's read-lock accessors: it never
// touches the write lock, so a slow or stalled HTTP client can never block
// the step loop.
package statusapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"antconsensus"
)

// Metrics is the set of Prometheus collectors the status surface exports.
// Each Collect call reads the bound NodeState under its read lock.
type Metrics struct {
	pheromonesReceived prometheus.CounterFunc
	pheromonesEmitted  prometheus.CounterFunc
	antsCreated        prometheus.CounterFunc
	consensusReached   prometheus.CounterFunc
	messagesSent       prometheus.CounterFunc
	messagesReceived   prometheus.CounterFunc
	aliveAnts          prometheus.GaugeFunc
	neighborCount      prometheus.GaugeFunc
	pheromoneBuckets   prometheus.GaugeFunc
}

// NewMetrics builds the collector set bound to node and registers them
// with registry.
func NewMetrics(node *antconsensus.NodeState, registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		pheromonesReceived: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "antconsensus_pheromones_received_total",
			Help: "Pheromones received from peers.",
		}, func() float64 { return float64(node.GetStats().PheromonesReceived) }),
		pheromonesEmitted: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "antconsensus_pheromones_emitted_total",
			Help: "Pheromones emitted by this node.",
		}, func() float64 { return float64(node.GetStats().PheromonesEmitted) }),
		antsCreated: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "antconsensus_ants_created_total",
			Help: "Ant agents created by this node.",
		}, func() float64 { return float64(node.GetStats().AntsCreated) }),
		consensusReached: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "antconsensus_consensus_reached_total",
			Help: "Times this node latched a consensus value.",
		}, func() float64 { return float64(node.GetStats().ConsensusReached) }),
		messagesSent: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "antconsensus_messages_sent_total",
			Help: "Messages broadcast by this node.",
		}, func() float64 { return float64(node.GetStats().MessagesSent) }),
		messagesReceived: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "antconsensus_messages_received_total",
			Help: "Messages received by this node.",
		}, func() float64 { return float64(node.GetStats().MessagesReceived) }),
		aliveAnts: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "antconsensus_ants_alive",
			Help: "Ants currently alive at this node.",
		}, func() float64 { return float64(node.AliveAntCount()) }),
		neighborCount: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "antconsensus_neighbors",
			Help: "Size of this node's neighbor set.",
		}, func() float64 { return float64(len(node.GetNeighbors())) }),
		pheromoneBuckets: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "antconsensus_pheromone_value_buckets",
			Help: "Distinct consensus values currently holding live pheromones.",
		}, func() float64 { return float64(node.PheromoneBucketCount()) }),
	}
	registry.MustRegister(
		m.pheromonesReceived, m.pheromonesEmitted, m.antsCreated,
		m.consensusReached, m.messagesSent, m.messagesReceived,
		m.aliveAnts, m.neighborCount, m.pheromoneBuckets,
	)
	return m
}

// statsResponse is the JSON body served at /stats.
type statsResponse struct {
	NodeID           uint32 `json:"node_id"`
	InstanceID       string `json:"instance_id"`
	PheromonesRecv   uint64 `json:"pheromones_received"`
	PheromonesEmit   uint64 `json:"pheromones_emitted"`
	AntsCreated      uint64 `json:"ants_created"`
	AntsAlive        int    `json:"ants_alive"`
	ConsensusReached uint64 `json:"consensus_reached"`
	MessagesSent     uint64 `json:"messages_sent"`
	MessagesReceived uint64 `json:"messages_received"`
	CurrentValue     string `json:"current_value,omitempty"`
	NeighborCount    int    `json:"neighbor_count"`
}

type neighborsResponse struct {
	NodeID    uint32   `json:"node_id"`
	Neighbors []uint32 `json:"neighbors"`
}

// NewRouter builds the gin engine serving /stats, /neighbors, and
// /metrics for node. registry may be nil, in which case /metrics uses
// the default global Prometheus registry.
func NewRouter(node *antconsensus.NodeState, registry *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/stats", func(c *gin.Context) {
		stats := node.GetStats()
		resp := statsResponse{
			NodeID:           uint32(node.ID()),
			InstanceID:       node.InstanceID(),
			PheromonesRecv:   stats.PheromonesReceived,
			PheromonesEmit:   stats.PheromonesEmitted,
			AntsCreated:      stats.AntsCreated,
			AntsAlive:        node.AliveAntCount(),
			ConsensusReached: stats.ConsensusReached,
			MessagesSent:     stats.MessagesSent,
			MessagesReceived: stats.MessagesReceived,
			NeighborCount:    len(node.GetNeighbors()),
		}
		if v, ok := node.CurrentValue(); ok {
			resp.CurrentValue = v.Hex()
		}
		c.JSON(http.StatusOK, resp)
	})

	r.GET("/neighbors", func(c *gin.Context) {
		neighbors := node.GetNeighbors()
		out := make([]uint32, len(neighbors))
		for i, n := range neighbors {
			out[i] = uint32(n)
		}
		c.JSON(http.StatusOK, neighborsResponse{NodeID: uint32(node.ID()), Neighbors: out})
	})

	if registry != nil {
		handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		r.GET("/metrics", gin.WrapH(handler))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return r
}
