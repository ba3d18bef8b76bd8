package bridge

import (
	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/rs/zerolog"
)

// router resolves inbound deliveries against one bridge's table. Request ids
// are generated per bridge, so a delivery meant for another browser finds no
// entry here and is ignored.
type router struct {
	table  *pendingTable
	logger zerolog.Logger
}

func newRouter(table *pendingTable, logger zerolog.Logger) *router {
	return &router{table: table, logger: logger}
}

func (r *router) Deliver(delivery domain.Delivery) {
	if delivery.RequestID == "" {
		r.logger.Debug().Msg("ignoring delivery without request id")
		return
	}
	if r.table.Resolve(delivery.RequestID, delivery.Data) {
		r.logger.Debug().Str("request_id", delivery.RequestID).Msg("routed wallet delivery")
	}
}
