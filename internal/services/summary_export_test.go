package services

import (
	"context"
	"errors"
	"testing"

	"drinktracker/internal/amqp"
	"drinktracker/internal/core"
	"drinktracker/internal/memory"
	"drinktracker/internal/ports"
)

type fakeExporter struct {
	exported []core.MonthlySummary
	err      error
}

func (f *fakeExporter) ExportSummary(_ context.Context, s core.MonthlySummary) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.exported = append(f.exported, s)
	return "Summaries!A2", nil
}

func TestSummaryExportProcessor_HandleSummaryMessage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_ = store.UpsertMonthlySummary(ctx, core.MonthlySummary{UserID: "u1", Year: 2024, Month: 2, TotalDrinks: 3, DaysTracked: 3, AveragePerDay: 1})

	exporter := &fakeExporter{}
	p := NewSummaryExportProcessor(store, exporter)

	tests := []struct {
		name    string
		msg     *amqp.SummaryComputedMessage
		wantErr error
	}{
		{"existing summary", &amqp.SummaryComputedMessage{UserID: "u1", Year: 2024, Month: 2}, nil},
		{"missing summary", &amqp.SummaryComputedMessage{UserID: "u1", Year: 2024, Month: 3}, ports.ErrNotFound},
		{"invalid month", &amqp.SummaryComputedMessage{UserID: "u1", Year: 2024, Month: 0}, core.ErrInvalidMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.HandleSummaryMessage(ctx, tt.msg)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("HandleSummaryMessage: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(exporter.exported) != 1 || exporter.exported[0].TotalDrinks != 3 {
		t.Errorf("exported = %+v", exporter.exported)
	}
}

func TestSummaryExportProcessor_ExporterFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_ = store.UpsertMonthlySummary(ctx, core.MonthlySummary{UserID: "u1", Year: 2024, Month: 2, TotalDrinks: 1, DaysTracked: 1, AveragePerDay: 1})

	p := NewSummaryExportProcessor(store, &fakeExporter{err: errors.New("quota exceeded")})
	if err := p.HandleSummaryMessage(ctx, &amqp.SummaryComputedMessage{UserID: "u1", Year: 2024, Month: 2}); err == nil {
		t.Fatal("exporter errors should be returned so the message is requeued")
	}
}
