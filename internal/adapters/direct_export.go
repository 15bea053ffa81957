package adapters

import (
	"context"

	"drinktracker/internal/amqp"
	"drinktracker/internal/core"
	"drinktracker/internal/ports"
	"drinktracker/internal/services"
)

// DirectExportPublisher satisfies ports.SummaryPublisher by exporting in
// process instead of going through the broker. Used when Sheets export is
// configured without AMQP.
type DirectExportPublisher struct {
	processor *services.SummaryExportProcessor
}

var _ ports.SummaryPublisher = (*DirectExportPublisher)(nil)

func NewDirectExportPublisher(processor *services.SummaryExportProcessor) *DirectExportPublisher {
	return &DirectExportPublisher{processor: processor}
}

// PublishSummaryComputed implements ports.SummaryPublisher
func (p *DirectExportPublisher) PublishSummaryComputed(ctx context.Context, userID string, ym core.YearMonth) error {
	return p.processor.HandleSummaryMessage(ctx, amqp.NewSummaryComputedMessage(userID, ym))
}
