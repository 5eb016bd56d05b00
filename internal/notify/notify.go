// Package notify defines the outbound notification collaborator. Delivery
// transports (email, chat) live outside this service; implementations here
// are narrow adapters the lifecycle service calls fire-and-forget.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/vegnar/orders-api/internal/domain/order"
)

var _ order.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the service log. It stands in for a
// real delivery channel in development and keeps the admin trail when no
// mailer is configured.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier returns a LogNotifier using the given logger.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg}
}

func (n *LogNotifier) OrderCreated(_ context.Context, o *order.Order) error {
	n.lg.Info("new order received",
		zap.String("order_id", o.ID),
		zap.String("gateway_order_id", o.GatewayOrderID),
		zap.String("amount", o.Amount.String()),
		zap.String("currency", o.Currency),
		zap.String("email", o.Email),
	)
	return nil
}
