package tutor

import (
	"fmt"
	"strings"

	"github.com/abhisek/studyloop/internal/bank"
)

const evaluateSystemPrompt = `You are a tutor grading a learner's answer against a reference answer.

Rules:
- Judge meaning, not wording. Paraphrases and equivalent formulations are correct.
- "correct": the answer covers the essential content of the reference answer. Score 0.8 to 1.
- "partial": the answer is on the right track but misses or confuses something important. Score 0.3 to 0.7.
- "incorrect": the answer is wrong, off-topic or empty. Score 0 to 0.2.
- Spoken answers are transcribed automatically; ignore filler words and small transcription errors.
- The rationale is one or two sentences addressed to the learner: what was right, what was wrong, how to improve.
- Write the rationale in the language of the question unless told otherwise.`

const followUpSystemPrompt = `You are a tutor writing a short multiple-choice quiz that checks whether a learner understood a concept.

Rules:
- Each question has exactly four options keyed A, B, C and D, with exactly one correct option.
- Distractors should reflect plausible misconceptions, in particular the learner's own mistake.
- Do not repeat the original question; test the underlying concept from different angles.
- Keep questions and options short and self-contained.
- Write in the language of the original question unless told otherwise.`

const exampleSystemPrompt = `You are a tutor who explains concepts with practical, concrete examples.

Rules:
- Give one worked, real-world example that makes the concept click.
- Match the learner's level: simple for easy material, more precise for advanced material.
- Plain text only, no markdown headings, at most a few short paragraphs.
- Write in the language of the question unless told otherwise.`

const keywordsSystemPrompt = `You extract search keywords for finding an explanatory video about a concept.

Rules:
- Return exactly three keywords or short phrases, most specific first.
- Prefer terms an instructor would put in a lesson title.
- Use the language of the input.`

func languageLine(cfg Config) string {
	if cfg.Language == "" {
		return ""
	}
	return fmt.Sprintf("Language: %s\n", cfg.Language)
}

func buildEvaluateMessage(q bank.QuestionRecord, answer string, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", q.Topic)
	fmt.Fprintf(&b, "Level: %s\n", q.Difficulty)
	b.WriteString(languageLine(cfg))
	fmt.Fprintf(&b, "\nQuestion: %s\n", q.Prompt)
	fmt.Fprintf(&b, "Reference answer: %s\n", q.CorrectChoiceText())
	fmt.Fprintf(&b, "Learner's answer: %s\n", answer)
	return b.String()
}

func buildFollowUpMessage(q bank.QuestionRecord, answer, rationale string, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d questions.\n", cfg.FollowUpQuestions)
	fmt.Fprintf(&b, "Topic: %s\n", q.Topic)
	fmt.Fprintf(&b, "Level: %s\n", q.Difficulty)
	b.WriteString(languageLine(cfg))
	fmt.Fprintf(&b, "\nOriginal question: %s\n", q.Prompt)
	fmt.Fprintf(&b, "Correct answer: %s\n", q.CorrectChoiceText())
	fmt.Fprintf(&b, "Learner's answer: %s\n", answer)
	if rationale != "" {
		fmt.Fprintf(&b, "Feedback given: %s\n", rationale)
	}
	return b.String()
}

func buildExampleMessage(q bank.QuestionRecord, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Concept: %s\n", q.Topic)
	fmt.Fprintf(&b, "Level: %s\n", q.Difficulty)
	b.WriteString(languageLine(cfg))
	fmt.Fprintf(&b, "\nThe learner is struggling with questions like: %s\n", q.Prompt)
	return b.String()
}

func buildKeywordsMessage(topic string) string {
	return fmt.Sprintf("Concept: %s\n", topic)
}
