package model

import "strings"

// Article is one item of the news feed, as returned by the news API.
// Field names follow the upstream JSON so the frontend can pass an article
// straight through to the quiz page.
type Article struct {
	ArticleID   string   `json:"article_id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	ImageURL    string   `json:"image_url"`
	PubDate     string   `json:"pubDate"`
	SourceID    string   `json:"source_id"`
	Creator     []string `json:"creator"`
	Category    []string `json:"category"`

	// ReadingTime is computed by us (minutes), not sent by the API.
	ReadingTime int `json:"readingTime"`
}

// NewsQuery holds the filters accepted by the news API.
type NewsQuery struct {
	Country  string `json:"country,omitempty"`
	Language string `json:"language,omitempty"`
	Category string `json:"category,omitempty"`
	Query    string `json:"q,omitempty"`
	Page     string `json:"page,omitempty"` // opaque cursor from a previous NextPage
}

// NewsPage is one page of results.
type NewsPage struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Results      []Article `json:"results"`
	NextPage     string    `json:"nextPage,omitempty"`
}

// WordsPerMinute is the reading speed used for time estimates.
const WordsPerMinute = 225

// ReadingMinutes estimates how long text takes to read, rounded up.
// Empty or whitespace-only text is 0 minutes.
func ReadingMinutes(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// EstimateReadingTime fills ReadingTime from the content, falling back to
// the description when the API sent no content.
func (a *Article) EstimateReadingTime() {
	text := a.Content
	if strings.TrimSpace(text) == "" {
		text = a.Description
	}
	a.ReadingTime = ReadingMinutes(text)
}
