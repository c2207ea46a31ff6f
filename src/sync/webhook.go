package sync

import (
	"context"
	"fmt"
	"log"

	"finance-app-server/src/models"
)

// WebhookMessage is the body Plaid posts to the webhook endpoint. Only the
// fields the dispatcher routes on are decoded.
type WebhookMessage struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
	Error       *struct {
		ErrorCode string `json:"error_code"`
	} `json:"error"`
}

// HandleWebhook routes a notification to the right action. Errors are
// returned for logging only; the HTTP handler acknowledges receipt
// regardless so the sender does not retry-storm.
func (e *Engine) HandleWebhook(ctx context.Context, msg WebhookMessage) error {
	switch msg.WebhookType {
	case "TRANSACTIONS":
		switch msg.WebhookCode {
		case "SYNC_UPDATES_AVAILABLE", "DEFAULT_UPDATE", "HISTORICAL_UPDATE":
			item, err := e.store.ItemByPlaidItemID(ctx, msg.ItemID)
			if err != nil {
				return fmt.Errorf("lookup item %s: %w", msg.ItemID, err)
			}
			if _, err := e.SyncItem(ctx, *item); err != nil {
				return fmt.Errorf("sync item %s: %w", msg.ItemID, err)
			}
		default:
			log.Printf("INFO: Ignoring transactions webhook code %s for item %s", msg.WebhookCode, msg.ItemID)
		}

	case "ITEM":
		switch msg.WebhookCode {
		case "ERROR":
			errorCode := "UNKNOWN"
			if msg.Error != nil && msg.Error.ErrorCode != "" {
				errorCode = msg.Error.ErrorCode
			}
			if err := e.store.SetAccountStatusByItem(ctx, msg.ItemID, models.AccountStatusError, &errorCode); err != nil {
				return fmt.Errorf("mark item %s errored: %w", msg.ItemID, err)
			}
			log.Printf("ERROR: Item %s reported error %s", msg.ItemID, errorCode)

		case "PENDING_EXPIRATION":
			// Requires the user to re-authenticate; no automated remediation.
			if err := e.store.SetAccountStatusByItem(ctx, msg.ItemID, models.AccountStatusPendingExpiration, nil); err != nil {
				return fmt.Errorf("mark item %s pending expiration: %w", msg.ItemID, err)
			}
			log.Printf("INFO: Item %s access is pending expiration", msg.ItemID)

		default:
			log.Printf("INFO: Ignoring item webhook code %s for item %s", msg.WebhookCode, msg.ItemID)
		}

	default:
		log.Printf("INFO: Ignoring webhook type %s for item %s", msg.WebhookType, msg.ItemID)
	}

	return nil
}
