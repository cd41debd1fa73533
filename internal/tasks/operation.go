// Package tasks classifies free-text task descriptions into a closed set of
// operations and dispatches each one to its handler.
package tasks

import (
	"encoding/json"
	"fmt"
)

// Operation identifies one of the file operations the service can perform.
type Operation int

const (
	// OpUnknown is what any label outside the known set parses to.
	OpUnknown Operation = iota
	OpInstallUV
	OpFormatMarkdown
	OpCountWeekdays
	OpSortContacts
	OpRecentLogLines
	OpMarkdownTitles
	OpExtractEmail
	OpCreditCardNumber
	OpSimilarComments
	OpGoldTicketSales
)

var operationNames = [...]string{
	OpUnknown:          "unknown",
	OpInstallUV:        "install_uv",
	OpFormatMarkdown:   "format_md",
	OpCountWeekdays:    "count_weekdays",
	OpSortContacts:     "sort_contacts",
	OpRecentLogLines:   "extract_recent_log_lines",
	OpMarkdownTitles:   "extract_markdown_titles",
	OpExtractEmail:     "extract_email",
	OpCreditCardNumber: "extract_credit_card_number",
	OpSimilarComments:  "find_most_similar_comments",
	OpGoldTicketSales:  "compute_gold_ticket_sales",
}

var operationsByName = func() map[string]Operation {
	m := make(map[string]Operation, len(operationNames)-1)
	for op := OpInstallUV; int(op) < len(operationNames); op++ {
		m[operationNames[op]] = op
	}
	return m
}()

// String returns the canonical identifier of the operation.
func (o Operation) String() string {
	if o < 0 || int(o) >= len(operationNames) {
		return fmt.Sprintf("operation(%d)", int(o))
	}
	return operationNames[o]
}

// Known reports whether o is one of the dispatchable operations.
func (o Operation) Known() bool {
	return o > OpUnknown && int(o) < len(operationNames)
}

func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// ParseOperation maps a classifier label to an Operation. Matching is exact
// and case-sensitive; anything else is OpUnknown.
func ParseOperation(label string) Operation {
	if op, ok := operationsByName[label]; ok {
		return op
	}
	return OpUnknown
}

// Operations returns every known operation in canonical order.
func Operations() []Operation {
	ops := make([]Operation, 0, len(operationNames)-1)
	for op := OpInstallUV; int(op) < len(operationNames); op++ {
		ops = append(ops, op)
	}
	return ops
}
