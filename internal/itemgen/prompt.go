package itemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/item"
)

const generatorSystemPrompt = `You write "Build a Sentence" items for an English proficiency exam.

In each item the test taker sees a short situation (the prompt) and a bank of word chunks, and must put the chunks in order to form one grammatical sentence (the answer).

Rules:
- The answer is a single natural sentence of 7 to 15 words ending in "." or "?".
- Split the answer into 5 to 8 chunks of 1 to 3 lowercase words. Every word of the answer belongs to exactly one chunk, so there is exactly one correct order.
- Optionally give one chunk as prefilled, with its 0-indexed word position in the answer. A prefilled chunk is not listed in chunks.
- Optionally add one distractor: a plausible chunk that must not appear in the answer. List it in chunks as well.
- Keep capitalization only for proper nouns and "I"; chunks are otherwise lowercase and carry no punctuation.
- Favour questions, embedded questions ("Do you know where ..."), and reported speech. Tag embedded questions with the grammar point "embedded question".
- Vary names, settings and topics. Do not repeat any answer from the "already used" list.`

const reviewerSystemPrompt = `You review "Build a Sentence" items for an English proficiency exam before they are published.

For each item check that:
- the answer is grammatical, natural and matches the prompt;
- the chunks admit exactly one correct order;
- the distractor, if any, is plausible but clearly wrong;
- the content is neutral and suitable for adult test takers.

Score every item from 0 to 10 using its id, list concrete issues, and give an overall score for the group. Report blockers only for problems that make the whole group unusable.`

// buildGenerateMessage renders the user message for one generation call.
func buildGenerateMessage(input GenerateInput, cfg Config) string {
	count := input.Count
	if count <= 0 {
		count = cfg.BatchSize
	}
	need := input.Need
	if need == (difficulty.Mix[int]{}) {
		need = difficulty.TargetCount10()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write %d items.\n", count)
	fmt.Fprintf(&b, "Difficulty mix wanted: %d easy, %d medium, %d hard.\n", need.Easy, need.Medium, need.Hard)
	b.WriteString("Easy items are short with few chunks; hard items are long, use 3-word chunks, an embedded question or a distractor.\n")
	if len(input.GrammarFocus) > 0 {
		fmt.Fprintf(&b, "Grammar focus: %s\n", strings.Join(input.GrammarFocus, ", "))
	}

	b.WriteString("\nAlready used answers:\n")
	b.WriteString(buildDedup(input.AvoidAnswers, cfg.MaxPriorAnswers))
	return b.String()
}

// buildReviewMessage renders the items under review as numbered blocks.
func buildReviewMessage(items []item.AuthoredItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review these %d items.\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "\n[%s]\n", it.ID)
		fmt.Fprintf(&b, "Prompt: %s\n", it.Prompt)
		fmt.Fprintf(&b, "Answer: %s\n", it.Answer)
		fmt.Fprintf(&b, "Chunks: %s\n", strings.Join(it.Chunks, " | "))
		if len(it.Prefilled) > 0 {
			fmt.Fprintf(&b, "Prefilled: %s @ %d\n", it.Prefilled[0], it.PrefilledPositions[it.Prefilled[0]])
		}
		if it.HasDistractor() {
			fmt.Fprintf(&b, "Distractor: %s\n", *it.Distractor)
		}
	}
	return b.String()
}

// buildDedup formats prior answers, keeping the most recent max.
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, a := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a)
	}
	return strings.TrimRight(b.String(), "\n")
}
