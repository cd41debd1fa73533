package ops

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/tasker/internal/models"
	"github.com/dohr-michael/tasker/internal/tasks"
)

const (
	emailInput  = "email.txt"
	emailOutput = "email-sender.txt"
	cardInput   = "credit_card.png"
	cardOutput  = "credit-card.txt"

	emailInstruction = "Extract only the sender's email address from the given email content. Reply with the address alone."
	cardInstruction  = "Extract only the credit card number from the given image. Reply with the digits alone."
)

func (h *Handlers) complete(ctx context.Context, msgs []*schema.Message) (string, error) {
	if h.Extractor == nil {
		return "", tasks.Executionf("no extraction model configured")
	}
	m, err := h.Extractor(ctx)
	if err != nil {
		return "", tasks.ExecutionError("extraction model", err)
	}
	resp, err := m.Generate(ctx, msgs)
	if err != nil {
		return "", tasks.ExecutionError("extraction model", models.HandleError(err))
	}
	if resp == nil {
		return "", tasks.Executionf("extraction model returned no message")
	}
	return strings.TrimSpace(resp.Content), nil
}

// ExtractEmail asks the extraction model for the sender of email.txt.
func (h *Handlers) ExtractEmail(ctx context.Context) (*tasks.Result, error) {
	data, err := h.Root.ReadFile(emailInput)
	if err != nil {
		return nil, err
	}

	sender, err := h.complete(ctx, []*schema.Message{
		schema.SystemMessage(emailInstruction),
		schema.UserMessage(string(data)),
	})
	if err != nil {
		return nil, err
	}

	if err := h.Root.WriteFileAtomic(emailOutput, []byte(sender)); err != nil {
		return nil, err
	}
	return tasks.Success("Sender email extracted and saved to %s", h.Root.External(emailOutput)).
		With("email", sender), nil
}

// CreditCardNumber reads the card number off credit_card.png with a
// vision-capable model. Spaces are stripped from the answer.
func (h *Handlers) CreditCardNumber(ctx context.Context) (*tasks.Result, error) {
	data, err := h.Root.ReadFile(cardInput)
	if err != nil {
		return nil, err
	}

	mime := http.DetectContentType(data)
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)

	answer, err := h.complete(ctx, []*schema.Message{
		schema.SystemMessage(cardInstruction),
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: "Here is the image of the card. Extract the number."},
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:    dataURL,
						Detail: schema.ImageURLDetailHigh,
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	number := strings.ReplaceAll(answer, " ", "")
	if err := h.Root.WriteFileAtomic(cardOutput, []byte(number)); err != nil {
		return nil, err
	}
	return tasks.Success("Credit card number extracted and saved to %s", h.Root.External(cardOutput)).
		With("card_number", number), nil
}
