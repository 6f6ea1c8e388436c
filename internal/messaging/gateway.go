// Package messaging wraps the outbound SMS/WhatsApp carrier. The rest of
// the system only sees the Gateway capability: send a message to an address,
// get back a delivery id or an error.
package messaging

import "context"

type Gateway interface {
	// SendSMS delivers plain text and returns the carrier's message id.
	SendSMS(ctx context.Context, message, to string) (string, error)
	// SendWhatsApp delivers through a pre-approved template. WhatsApp
	// business messaging does not allow free text, so the message rides
	// along for carriers that accept it while contentSID and variables
	// drive the actual rendering.
	SendWhatsApp(ctx context.Context, message, to, contentSID string, variables map[string]string) (string, error)
}

// BulkResult summarizes a bulk SMS send, one entry per recipient.
type BulkResult struct {
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Results    []SendResult `json:"results"`
}

type SendResult struct {
	Phone     string `json:"phone"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_sid,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SendBulkSMS sends the same text to every phone number. Individual failures
// are recorded per recipient and never stop the batch.
func SendBulkSMS(ctx context.Context, gw Gateway, message string, phones []string) BulkResult {
	res := BulkResult{Total: len(phones), Results: make([]SendResult, 0, len(phones))}

	for _, phone := range phones {
		sid, err := gw.SendSMS(ctx, message, phone)
		r := SendResult{Phone: phone, MessageID: sid}
		if err != nil {
			r.Error = err.Error()
			res.Failed++
		} else {
			r.Success = true
			res.Successful++
		}
		res.Results = append(res.Results, r)
	}

	return res
}
