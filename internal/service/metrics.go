package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RoomsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_created_total",
		Help: "Total PvP rooms created",
	})
	RoomsSettled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_settled_total",
		Help: "Total rooms that reached the finished state",
	})
	MatchesStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ai_matches_started_total",
		Help: "Total best-of-three matches started",
	})
	MatchesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ai_matches_completed_total",
		Help: "Total best-of-three matches completed",
	})
	MatchesAbandoned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ai_matches_abandoned_total",
		Help: "Total best-of-three matches abandoned (explicit or expired)",
	})
	SweeperReaped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweeper_reaped_total",
		Help: "Total stale records reclaimed by the sweeper",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(RoomsCreated)
	prometheus.MustRegister(RoomsSettled)
	prometheus.MustRegister(MatchesStarted)
	prometheus.MustRegister(MatchesCompleted)
	prometheus.MustRegister(MatchesAbandoned)
	prometheus.MustRegister(SweeperReaped)
}
