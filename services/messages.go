package services

import (
	"context"
	"encoding/json"
	"fmt"

	"digital-menu/db"
	"digital-menu/models"
)

const orderChannel = "order"

// SaveOutboundMessage persists an outbound message (e.g. the order text handed to WhatsApp).
func SaveOutboundMessage(ctx context.Context, channel, content string, meta map[string]interface{}) error {
	metaJSON := "{}"
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal meta: %w", err)
		}
		metaJSON = string(b)
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO messages (channel, content, meta)
		VALUES ($1, $2, $3::jsonb)`,
		channel, content, metaJSON,
	)
	return err
}

// OrderMeta is the searchable part of an order row in the messages table.
func OrderMeta(payload *models.OrderPayload) map[string]interface{} {
	return map[string]interface{}{
		"room_number": payload.RoomNumber,
		"order_total": payload.OrderTotal,
		"lines":       len(payload.Lines),
	}
}

// MessageLogSink keeps a server-side copy of every submitted order.
type MessageLogSink struct{}

func (MessageLogSink) Name() string { return "message_log" }

func (MessageLogSink) Deliver(ctx context.Context, payload *models.OrderPayload, text string) error {
	return SaveOutboundMessage(ctx, orderChannel, text, OrderMeta(payload))
}
