// Package selectors holds the prioritized locator set used to find the chat
// UI's latest response, and the persisted memory of which locators worked
// last time for a given target.
package selectors

// Base is the prioritized locator list, most specific first. This is an
// environment-specific enumeration: the engine treats every entry as an
// opaque descriptor and never interprets it.
var Base = []string{
	// Direct response-body locators (highest priority).
	"model-response message-content.model-response-text .markdown p",
	"model-response message-content.model-response-text p",
	"model-response message-content p",
	"message-content.model-response-text .markdown p",
	"message-content.model-response-text p",
	"response-container message-content p",

	// Response containers.
	"model-response",
	"response-container",
	"message-content.model-response-text",

	// Generic chat-UI structure.
	"div[data-message-author='ai']",
	"[data-message-author='ai']",
	"div[aria-live='polite']",
	"div[aria-live='assertive']",
	"[role='feed'] [role='article']",
	"article[aria-live]",
	"article[role='article']",
	"div[role='article']",
	"div[role='region'][aria-live]",
	"section[aria-live]",
	"main [aria-live]",
	"chat-message[data-author='ai']",
	"chat-turn",
	"md-content",
	"md-block",
	"div[class*='markdown' i]",
	"section[class*='markdown' i]",
	"div[class*='prose' i]",
	"div[class*='response' i]",
	"section[class*='response' i]",
	"div[class*='output' i]",
	"div[class*='assistant' i]",
	"div[class*='answer' i]",
	"div[class*='message' i]",
	"[aria-label*='response' i]",
	"[aria-label*='assistant' i]",
	"[aria-label*='answer' i]",

	// Last-resort structural sweeps.
	"article",
	"section",
	"div[dir='auto']",
	"div[role='main']",
	"main",
	"p",
	"pre",
	"code",
}

// Order returns remembered locators first, then the base list, without
// duplicates. A nil or stale memory entry just means we pay the full scan.
func Order(remembered []string) []string {
	out := make([]string, 0, len(remembered)+len(Base))
	seen := make(map[string]struct{}, len(remembered)+len(Base))
	for _, lists := range [][]string{remembered, Base} {
		for _, loc := range lists {
			if _, dup := seen[loc]; dup {
				continue
			}
			seen[loc] = struct{}{}
			out = append(out, loc)
		}
	}
	return out
}
