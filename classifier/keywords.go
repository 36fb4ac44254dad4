package classifier

import "technews/model"

// DefaultTable returns the category table in priority order:
// AI, Software, Hardware, Crypto/Stocks.
func DefaultTable() KeywordTable {
	return KeywordTable{
		{
			Category: model.CategoryAI,
			Keywords: []string{"ai", "artificial intelligence", "chatgpt", "claude", "gpt-4", "gpt-5", "openai", "anthropic",
				"machine learning", "deep learning", "neural network", "llm", "gemini", "copilot"},
		},
		{
			Category: model.CategorySoftware,
			Keywords: []string{"software", "update", "windows 11", "windows", "macos", "linux", "app", "application",
				"release", "version", "patch", "microsoft", "google", "apple"},
		},
		{
			Category: model.CategoryHardware,
			Keywords: []string{"nvidia", "gpu", "processor", "chip", "hardware", "device", "smartphone", "laptop",
				"amd", "intel", "apple silicon", "m1", "m2", "m3", "m4"},
		},
		{
			Category: model.CategoryCrypto,
			Keywords: []string{"dogecoin", "bitcoin", "ethereum", "crypto", "cryptocurrency", "stock", "ipo",
				"market", "investment", "ai bubble", "valuation", "tesla", "spacex"},
		},
	}
}

// DefaultRelevanceKeywords is the union of the default category keywords.
func DefaultRelevanceKeywords() []string {
	return DefaultTable().Keywords()
}
