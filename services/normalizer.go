package services

import (
	"strings"

	"pnodedash/models"
)

// NotAvailable fills string fields the upstream did not supply.
const NotAvailable = "N/A"

// NormalizePods maps raw pods to dashboard rows, one row per pod, in order.
// It never fails and never returns nil.
func NormalizePods(pods []models.RawPod) []models.PNode {
	nodes := make([]models.PNode, 0, len(pods))
	for _, pod := range pods {
		nodes = append(nodes, NormalizePod(pod))
	}
	return nodes
}

// NormalizePod derives a single row. Missing fields fall back to defaults.
func NormalizePod(pod models.RawPod) models.PNode {
	node := models.PNode{
		Pubkey:  stringOr(pod.Pubkey, NotAvailable),
		IP:      hostOf(pod.Address),
		Version: stringOr(pod.Version, NotAvailable),
		Status:  models.StatusInactive,
	}

	if pod.RPCPort != nil {
		node.Port = *pod.RPCPort
	}
	if pod.IsPublic {
		node.Status = models.StatusActive
	}

	// Copied so rows never alias the raw pod.
	node.LastVote = copyInt(pod.LastSeenTimestamp)
	node.Uptime = copyInt(pod.Uptime)

	// BlocksProduced, Latency and Location are not supplied by get-pods-with-stats.
	return node
}

func stringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

// hostOf returns the part of "host:port" before the first colon.
func hostOf(address *string) string {
	if address == nil {
		return NotAvailable
	}
	host, _, _ := strings.Cut(*address, ":")
	if host == "" {
		return NotAvailable
	}
	return host
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
