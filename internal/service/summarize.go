package service

import (
	"context"
	"fmt"

	"github.com/kensho/repoqa/internal/llm"
)

const (
	// summaryReadmeChars caps the README excerpt for the short summary.
	summaryReadmeChars = 2_000

	// paperReadmeChars caps the README excerpt for the project paper.
	paperReadmeChars = 4_000
)

// SummarizeRequest asks for a repository overview.
type SummarizeRequest struct {
	Owner       string `json:"owner"`
	Repo        string `json:"repo"`
	Description string `json:"description"`
	Branch      string `json:"branch,omitempty"`
}

// SummarizeResponse carries the short summary and the one-page project
// paper, plus the index state the call left behind.
type SummarizeResponse struct {
	Summary      string `json:"summary"`
	ProjectPaper string `json:"project_paper"`
	Indexed      bool   `json:"indexed"`
	Branch       string `json:"branch"`
}

// Summarize produces a concise summary and a structured project paper
// for a repository, indexing it first if needed. A missing or failing
// LLM degrades to README excerpts rather than failing the request.
func (s *Service) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	if req.Owner == "" || req.Repo == "" {
		return nil, fmt.Errorf("%w: owner and repo are required", ErrValidation)
	}

	branch, err := s.ensureIndexed(ctx, req.Owner, req.Repo, req.Branch)
	if err != nil {
		return nil, err
	}

	readme := s.forge.FetchReadme(ctx, req.Owner, req.Repo)

	summary := s.completeOrDegrade(ctx, summaryPrompt(req, readme), readme, summaryReadmeChars)
	paper := s.completeOrDegrade(ctx, paperPrompt(req, readme), readme, paperReadmeChars)

	return &SummarizeResponse{
		Summary:      summary,
		ProjectPaper: paper,
		Indexed:      true,
		Branch:       branch,
	}, nil
}

// completeOrDegrade runs one completion, falling back to a README
// excerpt when no LLM is available.
func (s *Service) completeOrDegrade(ctx context.Context, prompt, readme string, limit int) string {
	degraded := "[LLM unavailable]\n\n" + truncate(readme, limit)

	if s.chat == nil || !s.chat.Configured() {
		return degraded
	}

	reply, err := s.chat.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		s.logger.Warn("summarize completion failed, degrading", "error", err)
		return degraded
	}
	return reply
}

func summaryPrompt(req SummarizeRequest, readme string) string {
	return fmt.Sprintf(
		"Summarize the following GitHub repository in a concise paragraph. "+
			"Focus only on the project's purpose, main features, and how it is organized. "+
			"Ignore any information about funding, badges, external links, or unrelated content.\n\n"+
			"Repository: %s/%s\nDescription: %s\nREADME: %s",
		req.Owner, req.Repo,
		req.Description,
		truncate(readme, summaryReadmeChars),
	)
}

func paperPrompt(req SummarizeRequest, readme string) string {
	return fmt.Sprintf(
		"Write a one-page project overview for the following GitHub repository. "+
			"Include only the following sections:\n"+
			"- Project Name\n- Purpose\n- Main Features\n- File/Folder Structure (if available)\n"+
			"- Key Technologies Used\n- How to Use or Run the Project\n"+
			"- Contribution Guidelines (if available)\n- License\n"+
			"Do not include information about funding, badges, external links, or unrelated content. "+
			"Be clear, concise, and professional.\n\n"+
			"Repository: %s/%s\nDescription: %s\nREADME: %s",
		req.Owner, req.Repo,
		req.Description,
		truncate(readme, paperReadmeChars),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
