package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal Счётчик входящих апдейтов по типу (message/callback).
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Inbound Telegram updates by kind.",
	}, []string{"kind"})

	HandlerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_handler_errors_total",
		Help: "Update handler failures.",
	})
)
