package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"pnodedash/config"
	"pnodedash/metrics"
	"pnodedash/models"
	"pnodedash/utils"
)

// PodSource is anything that can produce the raw pod list; *PRPCClient in
// production.
type PodSource interface {
	GetPods(ctx context.Context) ([]models.RawPod, error)
}

// DashboardService runs the fetch -> normalize pipeline for the HTTP and CLI
// layers and owns the mock-data fallback. Every call is a fresh fetch.
type DashboardService struct {
	source     PodSource
	aggregator *DataAggregator
	fallback   config.FallbackConfig
	now        func() time.Time
}

func NewDashboardService(cfg *config.Config, source PodSource, aggregator *DataAggregator) *DashboardService {
	return &DashboardService{
		source:     source,
		aggregator: aggregator,
		fallback:   cfg.Fallback,
		now:        time.Now,
	}
}

// FetchNodes returns live rows or the gateway error. It never substitutes data.
func (ds *DashboardService) FetchNodes(ctx context.Context) ([]models.PNode, error) {
	pods, err := ds.source.GetPods(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizePods(pods), nil
}

// FetchStats aggregates one live fetch.
func (ds *DashboardService) FetchStats(ctx context.Context) (models.NetworkStats, error) {
	nodes, err := ds.FetchNodes(ctx)
	if err != nil {
		return models.NetworkStats{}, err
	}
	stats := ds.aggregator.Aggregate(nodes)
	metrics.SetStatusCounts(stats)
	return stats, nil
}

// Snapshot builds the dashboard page data. When the fetch fails and fallback
// is enabled the rows are synthetic and IsMock is set; otherwise the gateway
// error is returned.
func (ds *DashboardService) Snapshot(ctx context.Context) (*models.DashboardSnapshot, error) {
	snapshot := &models.DashboardSnapshot{FetchedAt: ds.now().UTC()}

	nodes, err := ds.FetchNodes(ctx)
	if err != nil {
		if !ds.fallback.Enabled {
			return nil, err
		}
		log.Warn().Err(err).Msg("Serving mock node data")
		metrics.IncFallback()

		nodes = utils.NewMockNodeGenerator(ds.fallback.Seed).Generate()
		snapshot.IsMock = true
		snapshot.Error = errorMessage(err)
	}

	snapshot.Nodes = nodes
	snapshot.Stats = ds.aggregator.Aggregate(nodes)
	metrics.SetStatusCounts(snapshot.Stats)
	return snapshot, nil
}

func errorMessage(err error) string {
	if gwErr, ok := models.AsGatewayError(err); ok {
		return gwErr.Message
	}
	return err.Error()
}
