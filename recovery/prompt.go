package recovery

import (
	"fmt"
	"strings"
)

// promptIndicators are fragments of the profile prompt. Captured text that
// contains one of these and little else is an echo of the query, not a
// response.
var promptIndicators = []string{
	"Provide a complete and comprehensive company profile",
	"Return ONLY valid JSON",
	"Return ONLY the JSON object",
}

// BuildPrompt renders the company-profile query for a ticker. The response
// is requested as pure JSON keyed by the five profile sections plus an
// optional Sources block.
func BuildPrompt(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	return fmt.Sprintf(`Provide a complete and comprehensive company profile for stock ticker %s in JSON format.

Return ONLY valid JSON with the following structure (no markdown, no code blocks, just pure JSON):

{
  "What": {
    "Sector": "sector name",
    "Industry": "industry name",
    "Description": "detailed description of what the company does",
    "Products": "main products, services, or offerings",
    "MarketPosition": "business category and market position"
  },
  "When": {
    "FoundedYear": "founded year",
    "IPODate": "IPO date if publicly traded",
    "KeyMilestones": "key milestones and growth timeline",
    "RecentEvents": "recent significant events"
  },
  "Where": {
    "Headquarters": "full headquarters address",
    "City": "city",
    "Country": "country",
    "OperationalFootprint": "where they operate"
  },
  "How": {
    "BusinessModel": "business model and how the company operates",
    "RevenueStreams": "revenue streams and monetization strategy",
    "CompetitiveAdvantages": "competitive advantages or unique selling points"
  },
  "Who": {
    "CEO": "current CEO name and title",
    "Founders": "founder(s) name(s) and background",
    "LeadershipTeam": "key leadership team members",
    "MajorShareholders": "major shareholders or stakeholders"
  },
  "Sources": {
    "URLs": ["list of URLs"],
    "References": ["list of references, articles, websites"]
  }
}

Provide factual, detailed, and comprehensive information about %s. Return ONLY the JSON object, nothing else.`, ticker, ticker)
}

// echoesPrompt reports whether captured text is really the submitted query
// leaking back: either the prompt verbatim, or a short fragment carrying
// prompt wording.
func echoesPrompt(text, prompt string) bool {
	text = strings.TrimSpace(text)
	prompt = strings.TrimSpace(prompt)
	if text == "" {
		return false
	}
	if text == prompt || (prompt != "" && strings.Contains(text, prompt)) {
		return true
	}
	if len(text) >= 500 {
		return false
	}
	for _, ind := range promptIndicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}
