package ui

import tele "gopkg.in/telebot.v4"

// Article describes a single inline query article.
type Article struct {
	ID          string
	Title       string
	Description string
	Text        string
}

// NewArticleResult builds an article result that posts Text when chosen.
func NewArticleResult(a Article) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       a.Title,
		Description: a.Description,
		Text:        a.Text,
	}
	result.SetResultID(a.ID)
	return result
}

// ArticleResponse wraps articles into a personal inline query response.
// An empty list is a valid answer that shows no results.
func ArticleResponse(cacheSeconds int, articles ...Article) *tele.QueryResponse {
	results := make(tele.Results, 0, len(articles))
	for _, a := range articles {
		results = append(results, NewArticleResult(a))
	}
	return &tele.QueryResponse{
		Results:    results,
		CacheTime:  cacheSeconds,
		IsPersonal: true,
	}
}
