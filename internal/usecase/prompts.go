package usecase

import (
	"fmt"
	"strings"
)

// Prompt templates for the two generation stages. The planner gets a hard
// JSON-only contract backed by queryPlanSchema; the writer gets the
// retrieved digest and a citation contract.

// queryPlanSchema constrains the planner's structured output. The same
// schema is sent to the model runtime (as the format constraint) and used
// locally to validate whatever comes back.
const queryPlanSchema = `{
	"type": "object",
	"properties": {
		"queries": {
			"type": "array",
			"items": {"type": "string", "minLength": 1},
			"minItems": 1,
			"maxItems": 3
		}
	},
	"required": ["queries"]
}`

const plannerSystemPrompt = `You are a research planner. You expand a user question into short, ` +
	`diversified web-search queries. Respond with ONLY a JSON object of the form ` +
	`{"queries": ["...", "..."]}. No markdown fences, no commentary.`

func buildPlannerPrompt(question string, maxQueries int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create 2-%d specific search queries to answer: %q\n\n", maxQueries, question)
	sb.WriteString(`Example:
Question: "How do neural networks work?"
{"queries": ["neural networks explained", "how neural networks learn", "neural network architecture"]}

`)
	fmt.Fprintf(&sb, "Now create the queries for: %q", question)
	return sb.String()
}

func buildCorrectivePrompt(raw string) string {
	return fmt.Sprintf(`Your previous reply was not valid JSON matching {"queries": [...]}:

%s

Reply again with ONLY the JSON object. No other text.`, raw)
}

const writerSystemPrompt = `You are a research assistant providing comprehensive answers using clean ` +
	`Markdown formatting. Your answer MUST be technical and factual, grounded ONLY in the ` +
	`supplied search results. Cite sources with numbered tags, e.g. [1], inside each paragraph.`

func buildWriterPrompt(question, digest string) string {
	return fmt.Sprintf(`Question: %s

Search results:
<SEARCH_RESULTS>
%s
</SEARCH_RESULTS>

Write a detailed answer using standard Markdown:
- Use ## for section headings and **bold** for key terms
- Use - for bullet points and numbered lists for sequential steps
- Reference sources as [1], [2] naturally in the text
- Do not invent facts that are not in the search results
- Do not write a sources section; it is appended separately`, question, digest)
}

// noSourcesDigest is used when every search failed or returned nothing, so
// the pipeline still produces an answer instead of aborting.
const noSourcesDigest = `No web results were retrieved. Answer from general knowledge, ` +
	`and state clearly that no sources could be consulted.`
