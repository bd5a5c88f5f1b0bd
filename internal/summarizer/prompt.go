package summarizer

// promptPreamble is the fixed instruction sent ahead of the document text.
// Changing it changes every stored summary, so treat it as part of the
// service contract.
const promptPreamble = "Please generate a concise and objective summary of the following document, " +
	"focusing on the key points and the most relevant information. " +
	"The summary must be at most 200 words. " +
	"If the document is very short or lacks substantial content, state that a meaningful summary cannot be generated.\n\n" +
	"Document content:\n"

// BuildPrompt embeds the decoded document text into the fixed summary prompt.
func BuildPrompt(text string) string {
	return promptPreamble + text
}
