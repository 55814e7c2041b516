package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/contamio/recallctl/pkg/recall"
)

// List implements recall.Client.List.
func (c *Client) List(ctx context.Context) (recall.Collection, error) {
	resp, err := c.httpClient.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing recalls: %w", err)
	}

	collection, err := recall.DecodeCollection(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("listing recalls: %w", err)
	}

	return collection, nil
}

// Get implements recall.Client.Get.
func (c *Client) Get(ctx context.Context, id string) (recall.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, recall.ErrIDRequired
	}

	resp, err := c.httpClient.Get(ctx, recordPath(id))
	if err != nil {
		return nil, fmt.Errorf("getting recall %s: %w", id, err)
	}

	record, err := recall.DecodeRecord(recall.OperationGet, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("getting recall %s: %w", id, err)
	}

	return record, nil
}

// Update implements recall.Client.Update. Only the fields set in payload are
// sent; the remote API applies its own validation.
func (c *Client) Update(ctx context.Context, id string, payload recall.UpdatePayload) (recall.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, recall.ErrIDRequired
	}

	resp, err := c.httpClient.Put(ctx, recordPath(id), payload)
	if err != nil {
		return nil, fmt.Errorf("updating recall %s: %w", id, err)
	}

	record, err := recall.DecodeRecord(recall.OperationUpdate, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("updating recall %s: %w", id, err)
	}

	if c.logger != nil {
		c.logger.Info("recall updated", map[string]interface{}{
			"id":     id,
			"status": string(record.Status()),
		})
	}

	return record, nil
}
