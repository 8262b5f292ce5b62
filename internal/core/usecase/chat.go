package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
)

// ChatUseCase answers free-form questions over a job's extracted data by
// stuffing the persisted results into a single prompt.
type ChatUseCase struct {
	jobs       ports.JobRepository
	results    ports.ResultRepository
	completion ports.CompletionService
}

func NewChatUseCase(
	jobs ports.JobRepository,
	results ports.ResultRepository,
	completion ports.CompletionService,
) *ChatUseCase {
	return &ChatUseCase{
		jobs:       jobs,
		results:    results,
		completion: completion,
	}
}

func (uc *ChatUseCase) Answer(ctx context.Context, jobID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("question is required"))
	}

	if _, err := uc.jobs.GetByID(ctx, jobID); err != nil {
		return "", fmt.Errorf("load job %s: %w", jobID, err)
	}
	results, err := uc.results.ListByJob(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("load results for %s: %w", jobID, err)
	}
	if len(results) == 0 {
		return "No extracted data is available for this job yet.", nil
	}

	answer, err := uc.completion.GenerateAnswer(ctx, buildChatPrompt(question, results))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

func buildChatPrompt(question string, results []domain.Result) string {
	var b strings.Builder
	b.WriteString("You are an assistant answering questions about financial data extracted from invoices.\n")
	b.WriteString("Answer using only the data below. If the data does not contain the answer, say so.\n\n")
	b.WriteString("Extracted data (document | page | term | canonical | value | confidence):\n")
	for _, r := range results {
		fmt.Fprintf(&b, "%s | %d | %s | %s | %s | %d\n",
			r.DocName, r.Page, r.OriginalTerm, r.Canonical, r.Value, r.Confidence)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
