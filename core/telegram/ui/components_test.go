package ui

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestArticleResponse(t *testing.T) {
	resp := ArticleResponse(0, Article{ID: "001", Title: "t", Description: "d", Text: "body"})
	if len(resp.Results) != 1 {
		t.Fatalf("expected one result, got %d", len(resp.Results))
	}
	art, ok := resp.Results[0].(*tele.ArticleResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Results[0])
	}
	if art.ResultID() != "001" || art.Title != "t" || art.Description != "d" || art.Text != "body" {
		t.Fatalf("unexpected article: %+v", art)
	}
	if !resp.IsPersonal {
		t.Fatalf("expected personal response")
	}
}

func TestArticleResponseEmpty(t *testing.T) {
	resp := ArticleResponse(5)
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Fatalf("expected empty non-nil results, got %#v", resp.Results)
	}
}
