// Package relevance labels structured updates Include or Exclude for
// downstream compliance monitoring.
package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"horizonscan/internal/domain"
	"horizonscan/internal/ports"
)

const reviewSystemPrompt = "You are a regulatory compliance assistant."

const decisionPromptTemplate = `You are an AI exclusion agent for a large U.S.-based financial institution.

Your job is to review the following regulatory update based on the provided Topic and (if present) Additional Context. You must decide whether the update should be INCLUDED or EXCLUDED from downstream compliance monitoring.

Return your answer as a JSON object with:
- "recommendation": either "Include" or "Exclude"
- "reason": a short explanation (1-2 sentences) explaining your decision

Exclude items that are:
- Appointments, personnel changes, or events not impacting regulations
- General economic commentary not tied to a regulatory directive
- Updates only about non-U.S. markets unless they directly affect U.S. banks

Include items that:
- Involve regulations, policies, enforcement, or systemic financial implications
- Mention compliance, banking operations, risk management, or supervision
- Involve a firm being fined, penalized, or cited for violations

Review this update:

Topic: %s
Additional Context: %s`

// Filter reviews updates one at a time and fails closed: any error on
// the way to a decision produces an Exclude with a diagnostic reason.
type Filter struct {
	classifier ports.TextClassifier
	logger     *slog.Logger
}

// NewFilter wires a Filter. A nil logger silences diagnostics.
func NewFilter(classifier ports.TextClassifier, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Filter{classifier: classifier, logger: logger}
}

// Review labels every update. The output always holds exactly one
// record per input record, in input order; nothing is dropped here.
func (f *Filter) Review(ctx context.Context, updates []domain.Update) []domain.ReviewedUpdate {
	reviewed := make([]domain.ReviewedUpdate, 0, len(updates))
	for _, update := range updates {
		recommendation, reason := f.reviewOne(ctx, update)
		reviewed = append(reviewed, domain.ReviewedUpdate{
			Update:         update,
			Recommendation: recommendation,
			Reason:         reason,
		})
	}
	return reviewed
}

func (f *Filter) reviewOne(ctx context.Context, update domain.Update) (domain.Recommendation, string) {
	raw, err := f.classifier.Complete(ctx, reviewSystemPrompt, buildDecisionPrompt(update))
	if err != nil {
		f.logger.Warn("relevance call failed", "topic", update.Topic, "error", err)
		return domain.RecommendationExclude, fmt.Sprintf("review failed: %v", err)
	}

	decision, err := parseDecision(raw)
	if err != nil {
		f.logger.Warn("relevance response unreadable", "topic", update.Topic, "error", err)
		return domain.RecommendationExclude, fmt.Sprintf("unreadable review response: %v", err)
	}

	recommendation := domain.RecommendationExclude
	if strings.EqualFold(strings.TrimSpace(decision.Recommendation), string(domain.RecommendationInclude)) {
		recommendation = domain.RecommendationInclude
	}
	reason := strings.TrimSpace(decision.Reason)
	if reason == "" {
		reason = "no reason provided"
	}
	return recommendation, reason
}

func buildDecisionPrompt(update domain.Update) string {
	additionalContext := strings.TrimSpace(update.AdditionalContext)
	if additionalContext == "" {
		additionalContext = "None"
	}
	return fmt.Sprintf(decisionPromptTemplate, update.Topic, additionalContext)
}

type decision struct {
	Recommendation string `json:"recommendation"`
	Reason         string `json:"reason"`
}

// parseDecision pulls the JSON object out of a response that may wrap
// it in prose: everything from the first { to the last } is decoded.
func parseDecision(raw string) (decision, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return decision{}, fmt.Errorf("no JSON object in response")
	}

	var d decision
	if err := json.Unmarshal([]byte(raw[start:end+1]), &d); err != nil {
		return decision{}, fmt.Errorf("decode decision: %w", err)
	}
	return d, nil
}
