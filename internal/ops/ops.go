// Package ops implements one handler per operation. Every handler reads its
// fixed inputs from the data directory and replaces its fixed output.
package ops

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/tasker/internal/config"
	"github.com/dohr-michael/tasker/internal/storage/datadir"
	"github.com/dohr-michael/tasker/internal/tasks"
)

// Handlers holds the collaborators the operations need. Models are fetched
// lazily so operations that never call one work without credentials.
type Handlers struct {
	Root       *datadir.Root
	Tools      config.ToolsConfig
	UserEmail  string
	TicketType string
	HTTPClient *http.Client

	Extractor func(ctx context.Context) (model.BaseChatModel, error)
	Embedder  func(ctx context.Context) (embedding.Embedder, error)
}

// NewRegistry binds every operation to its handler.
func NewRegistry(h *Handlers) (*tasks.Registry, error) {
	handlers := make(map[tasks.Operation]tasks.Handler)
	for _, op := range tasks.Operations() {
		handlers[op] = h.handlerFor(op)
	}
	return tasks.NewRegistry(handlers)
}

func (h *Handlers) handlerFor(op tasks.Operation) tasks.Handler {
	switch op {
	case tasks.OpInstallUV:
		return h.InstallUV
	case tasks.OpFormatMarkdown:
		return h.FormatMarkdown
	case tasks.OpCountWeekdays:
		return h.CountWednesdays
	case tasks.OpSortContacts:
		return h.SortContacts
	case tasks.OpRecentLogLines:
		return h.RecentLogLines
	case tasks.OpMarkdownTitles:
		return h.MarkdownTitles
	case tasks.OpExtractEmail:
		return h.ExtractEmail
	case tasks.OpCreditCardNumber:
		return h.CreditCardNumber
	case tasks.OpSimilarComments:
		return h.SimilarComments
	case tasks.OpGoldTicketSales:
		return h.TicketSales
	default:
		return nil
	}
}

// marshalIndent matches a plain two-space JSON dump: no HTML escaping and
// no trailing newline.
func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
