package agent

import (
	"go.uber.org/zap"
)

// NewAllAgents собирает специалистов по типам данных
func NewAllAgents(inv Invoker, logger *zap.Logger) []Agent {
	if logger == nil {
		logger = zap.NewNop()
	}

	return []Agent{
		NewMarketAgent(inv, logger),
		NewNewsAgent(inv, logger),
		NewEarningsAgent(inv, logger),
	}
}
