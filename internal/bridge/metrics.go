package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message outcomes
const (
	outcomeAck  = "ack"
	outcomeNak  = "nak"
	outcomeTerm = "term"
)

var messagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "anky_bridge_messages_total",
		Help: "Stream messages settled by the event bridge, by outcome",
	},
	[]string{"outcome"},
)

var redeliveriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "anky_bridge_redeliveries_total",
		Help: "Stream messages received more than once",
	},
)
