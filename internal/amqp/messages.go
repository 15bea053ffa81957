package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"drinktracker/internal/core"
)

// SummaryComputedMessage announces that a monthly summary row was written.
// It carries only the key; consumers load the row from the store.
type SummaryComputedMessage struct {
	UserID    string    `json:"user_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSummaryComputedMessage(userID string, ym core.YearMonth) *SummaryComputedMessage {
	return &SummaryComputedMessage{
		UserID:    userID,
		Year:      ym.Year,
		Month:     int(ym.Month),
		Timestamp: time.Now(),
	}
}

// YearMonth validates and returns the month the message refers to.
func (m *SummaryComputedMessage) YearMonth() (core.YearMonth, error) {
	return core.NewYearMonth(m.Year, m.Month)
}

// Validate rejects messages that cannot identify a summary row.
func (m *SummaryComputedMessage) Validate() error {
	if m.UserID == "" {
		return core.ErrEmptyUser
	}
	if _, err := m.YearMonth(); err != nil {
		return fmt.Errorf("summary message for %s: %w", m.UserID, err)
	}
	return nil
}

func (m *SummaryComputedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SummaryComputedMessageFromJSON(data []byte) (*SummaryComputedMessage, error) {
	var msg SummaryComputedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
