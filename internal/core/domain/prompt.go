package domain

// DefaultAnswerPrompt is the built-in answer template. The first %s is the
// user question and the second the rendered sources.
const DefaultAnswerPrompt = `You are a helpful Slack assistant.
Answer the user's question using ONLY the sources below.
If the sources don't contain enough information, say you don't know and ask a specific follow-up question.
Be concise and actionable. Use bullet points when helpful.

USER QUESTION:
%s

SOURCES:
%s`

// Fixed replies used by the front doors.
const (
	// ReplyEmptyQuestion is sent when a mention carries no question.
	ReplyEmptyQuestion = "What would you like me to look up?"

	// ReplyEmptyAnswer is sent when generation returns nothing.
	ReplyEmptyAnswer = "I couldn't generate a response. Try rephrasing the question."

	// ReplyError is sent in thread when answering fails.
	ReplyError = "Error while answering (check server logs)."
)
