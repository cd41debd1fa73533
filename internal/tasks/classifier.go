package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/tasker/internal/models"
)

// Classifier maps a task description to a raw operation label.
type Classifier interface {
	Classify(ctx context.Context, task string) (string, error)
}

type example struct {
	task, label string
}

// fewShot is replayed before every task, in order.
var fewShot = []example{
	{"Sort contacts in /data/contacts.json by last name and save to /data/contacts-sorted.json", "sort_contacts"},
	{"How many Wednesdays are there in /data/dates.txt? Save count in /data/dates-wednesdays.txt", "count_weekdays"},
	{"Format the file /data/format.md using Prettier 3.4.2", "format_md"},
	{"Find the sender’s email in /data/email.txt and save it", "extract_email"},
	{"Write the first line of the 10 most recent .log files in /data/logs/ to /data/logs-recent.txt", "extract_recent_log_lines"},
	{"Find all Markdown", "extract_markdown_titles"},
	{"credit card number", "extract_credit_card_number"},
	{"Using embeddings, find the most similar pair of comments", "find_most_similar_comments"},
	{"total sales of all the items in the “Gold” ticket type?", "compute_gold_ticket_sales"},
}

func systemInstruction() string {
	names := make([]string, 0, len(operationNames))
	for _, op := range Operations() {
		names = append(names, op.String())
	}
	return "You are an assistant that maps tasks to predefined categories. " +
		"Given a task description, return the correct category from this list: " +
		strings.Join(names, ", ") + "."
}

// ModelClassifier classifies with a single chat completion.
type ModelClassifier struct {
	model   model.BaseChatModel
	timeout time.Duration
}

// NewModelClassifier wraps m. A zero timeout leaves the caller's deadline alone.
func NewModelClassifier(m model.BaseChatModel, timeout time.Duration) *ModelClassifier {
	return &ModelClassifier{model: m, timeout: timeout}
}

// Messages builds the prompt sent for task.
func Messages(task string) []*schema.Message {
	msgs := make([]*schema.Message, 0, 2*len(fewShot)+2)
	msgs = append(msgs, schema.SystemMessage(systemInstruction()))
	for _, ex := range fewShot {
		msgs = append(msgs,
			schema.UserMessage(ex.task),
			schema.AssistantMessage(ex.label, nil),
		)
	}
	return append(msgs, schema.UserMessage(task))
}

// Classify returns the trimmed model answer. Every failure is an
// ErrClassification; the call is never retried.
func (c *ModelClassifier) Classify(ctx context.Context, task string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.model.Generate(ctx, Messages(task))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", c.timeout, err)
		}
		return "", &Error{Kind: ErrClassification, Err: models.HandleError(err)}
	}
	if resp == nil {
		return "", &Error{Kind: ErrClassification, Msg: "empty model response"}
	}
	return strings.TrimSpace(resp.Content), nil
}
