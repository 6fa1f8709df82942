package slack

import "github.com/maine/rssnotify/internal/news"

// Attachment is a linked title shown under the message text.
type Attachment struct {
	Title     string `json:"title"`
	TitleLink string `json:"title_link"`
}

// Message is the incoming-webhook payload.
type Message struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
	LinkNames   int          `json:"link_names"`
}

// NewMessage builds the message for a single post. header is used as the
// fallback text shown in notifications.
func NewMessage(header string, post news.Post) Message {
	return Message{
		Text: header,
		Attachments: []Attachment{{
			Title:     post.Title,
			TitleLink: post.DestinationURL,
		}},
		LinkNames: 1,
	}
}
