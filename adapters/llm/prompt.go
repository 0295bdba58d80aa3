package llm

import "strings"

// jarvisPersona frames every query for the reply engines
const jarvisPersona = `You are Jarvis, an intelligent, concise, and slightly witty AI assistant.
Always answer in a short, to-the-point, confident style like Jarvis from Iron Man.
Avoid unnecessary words. Respond as if you're helping your creator.`

// BuildPrompt wraps a user query in the Jarvis persona
func BuildPrompt(query string) string {
	return "\n" + jarvisPersona + "\n\nQuery: " + query + "\n"
}

// cleanReply trims whitespace around a raw engine reply
func cleanReply(reply string) string {
	return strings.TrimSpace(reply)
}
