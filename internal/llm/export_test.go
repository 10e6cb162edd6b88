package llm

var GeminiSchema = geminiSchema
