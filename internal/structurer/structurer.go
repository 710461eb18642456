// Package structurer prompts a language model to turn extracted page
// content into structured regulatory update records.
package structurer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"horizonscan/internal/domain"
	"horizonscan/internal/extract"
	"horizonscan/internal/linkrepair"
	"horizonscan/internal/ports"
)

const systemPrompt = "You extract structured regulatory updates from documents."

const extractionPromptTemplate = `You are a regulatory update extraction assistant.

From the following DOCUMENT CONTENT, extract each distinct regulatory update.
Return the output as a strict JSON array of objects, each with the following keys:
- "date": the date of the update in YYYY-MM-DD format (if available)
- "topic": short title or subject of the update
- "additional_context": supporting detail copied verbatim from the content; do not generate or summarize, leave it empty when nothing qualifies
- "link": full URL to the source, chosen from the known links
- "regulator": the issuing regulatory body

Do not include any explanatory text or markdown. Output must start with [ and end with ].
Ensure all string values are wrapped in double quotes. Escape any internal quotes.

Known links to choose from: %s

DOCUMENT CONTENT:
"""
%s
"""`

// Structurer owns the extraction prompt and the repair passes applied
// to the classifier's output.
type Structurer struct {
	classifier ports.TextClassifier
	repair     *linkrepair.Engine
	logger     *slog.Logger
}

// New wires a Structurer. A nil logger silences diagnostics.
func New(classifier ports.TextClassifier, repair *linkrepair.Engine, logger *slog.Logger) *Structurer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Structurer{classifier: classifier, repair: repair, logger: logger}
}

// Structure prompts the classifier with the page content and decodes
// the response into update records. Classifier failures and malformed
// responses yield zero records, never an error: an unreadable page
// must not take down the rest of the scan.
func (s *Structurer) Structure(ctx context.Context, content extract.Content) []domain.Update {
	raw, err := s.classifier.Complete(ctx, systemPrompt, buildPrompt(content))
	if err != nil {
		s.logger.Warn("update extraction call failed", "error", err)
		return nil
	}

	updates, err := parseUpdates(raw)
	if err != nil {
		s.logger.Warn("update extraction returned malformed JSON", "error", err)
		return nil
	}

	if s.repair != nil {
		s.repair.Repair(updates, content.LinkInventory)
	}
	return updates
}

func buildPrompt(content extract.Content) string {
	inventory := content.LinkInventory
	if inventory == nil {
		inventory = []string{}
	}
	links, _ := json.Marshal(inventory)
	return fmt.Sprintf(extractionPromptTemplate, links, content.VisibleText)
}

// parseUpdates decodes a strict JSON array, tolerating the code fences
// chat models like to wrap around their output.
func parseUpdates(raw string) ([]domain.Update, error) {
	cleaned := stripCodeFences(raw)
	var updates []domain.Update
	if err := json.Unmarshal([]byte(cleaned), &updates); err != nil {
		return nil, fmt.Errorf("decode update array: %w", err)
	}
	return updates, nil
}

func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
