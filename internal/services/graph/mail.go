package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kcarante/thinktasker/internal/models"
	"go.uber.org/zap"
)

const (
	// messagePageSize is how many messages each inbox page requests
	messagePageSize = 50
	// batchMaxRequests is the Graph $batch limit per request
	batchMaxRequests = 20
)

// graphMessage is the wire shape of a mail message
type graphMessage struct {
	ID               string `json:"id"`
	Subject          string `json:"subject"`
	BodyPreview      string `json:"bodyPreview"`
	ReceivedDateTime string `json:"receivedDateTime"`
	Importance       string `json:"importance"`
	Body             struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	Flag struct {
		FlagStatus string `json:"flagStatus"`
	} `json:"flag"`
	ToRecipients []struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"toRecipients"`
}

type messagePage struct {
	Value    []graphMessage `json:"value"`
	NextLink string         `json:"@odata.nextLink"`
}

// ListUnreadMessages fetches the unread inbox messages of a user,
// following pagination links until the inbox is drained.
func (c *Client) ListUnreadMessages(ctx context.Context, graphUserID string) ([]models.RawMessage, error) {
	query := url.Values{}
	query.Set("$filter", "isRead eq false")
	query.Set("$select", "id,subject,bodyPreview,body,receivedDateTime,flag,importance,toRecipients")
	query.Set("$top", fmt.Sprintf("%d", messagePageSize))

	next := fmt.Sprintf("%s/users/%s/mailFolders/inbox/messages?%s",
		c.baseURL, url.PathEscape(graphUserID), query.Encode())

	var messages []models.RawMessage
	for next != "" {
		var page messagePage
		if err := c.doJSON(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list unread messages: %w", err)
		}

		for _, m := range page.Value {
			messages = append(messages, toRawMessage(m))
		}
		next = page.NextLink
	}

	if c.logger != nil {
		c.logger.Debug("listed unread messages",
			zap.String("graph_user_id", graphUserID),
			zap.Int("count", len(messages)),
		)
	}

	return messages, nil
}

func toRawMessage(m graphMessage) models.RawMessage {
	received, _ := time.Parse(time.RFC3339, m.ReceivedDateTime)

	recipients := make([]string, 0, len(m.ToRecipients))
	for _, r := range m.ToRecipients {
		if r.EmailAddress.Address != "" {
			recipients = append(recipients, r.EmailAddress.Address)
		}
	}

	return models.RawMessage{
		ID:          m.ID,
		Subject:     m.Subject,
		BodyPreview: m.BodyPreview,
		Body:        m.Body.Content,
		ReceivedAt:  received,
		Flagged:     m.Flag.FlagStatus == "flagged",
		Important:   m.Importance == "high",
		Recipients:  recipients,
	}
}

// batchRequest is one entry in a Graph $batch payload
type batchRequest struct {
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Body    any               `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type batchResponse struct {
	Responses []struct {
		ID     string `json:"id"`
		Status int    `json:"status"`
	} `json:"responses"`
}

// BatchMarkRead marks messages as read using $batch requests, twenty
// sub-requests at a time. A failed sub-request fails the whole call so
// the caller can retry; marking an already-read message again is
// harmless.
func (c *Client) BatchMarkRead(ctx context.Context, graphUserID string, messageIDs []string) error {
	for start := 0; start < len(messageIDs); start += batchMaxRequests {
		end := start + batchMaxRequests
		if end > len(messageIDs) {
			end = len(messageIDs)
		}

		chunk := messageIDs[start:end]
		requests := make([]batchRequest, 0, len(chunk))
		for i, id := range chunk {
			requests = append(requests, batchRequest{
				ID:     fmt.Sprintf("%d", i+1),
				Method: http.MethodPatch,
				URL:    fmt.Sprintf("/users/%s/messages/%s", url.PathEscape(graphUserID), url.PathEscape(id)),
				Body:   map[string]bool{"isRead": true},
				Headers: map[string]string{
					"Content-Type": "application/json",
				},
			})
		}

		var resp batchResponse
		payload := map[string][]batchRequest{"requests": requests}
		if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/$batch", payload, &resp); err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}

		for _, r := range resp.Responses {
			if r.Status < 200 || r.Status >= 300 {
				return fmt.Errorf("failed to mark message read: sub-request %s returned status %d", r.ID, r.Status)
			}
		}
	}

	return nil
}
