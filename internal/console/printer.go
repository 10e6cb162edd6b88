// Package console is the terminal front-end: it renders session events,
// reads typed answers and lets the learner pick a mode.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/profile"
	"github.com/abhisek/studyloop/internal/session"
)

const barWidth = 20

// Printer renders session events to a writer. Colors are downsampled to
// what the writer supports, so a non-terminal writer gets plain text.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Emit implements session.Sink.
func (p *Printer) Emit(e session.Event) {
	out := p.render(e)
	if out == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	lipgloss.Fprintln(p.w, out)
}

func (p *Printer) render(e session.Event) string {
	switch ev := e.(type) {
	case session.SessionStarted:
		return renderStart(ev)
	case session.QuestionPresented:
		return renderQuestion(ev)
	case session.ListeningStarted:
		return hintStyle.Render("Answer out loud.")
	case session.AnswerFailed:
		return incorrectStyle.Render(fmt.Sprintf("Couldn't get an answer (try %d of %d): ", ev.Try, ev.MaxTries)) +
			bodyStyle.Render(ev.Err.Error())
	case session.AnswerSkipped:
		return hintStyle.Render("Moving on. This one counts as incorrect.")
	case session.EvaluationRetried:
		return hintStyle.Render("The grader stumbled, trying again...")
	case session.AnswerEvaluated:
		return renderVerdict(ev.Evaluation)
	case session.MasteryUpdated:
		return renderMastery(ev)
	case session.ExampleShown:
		return subtitleStyle.Render("Worked example: "+ev.Topic) + "\n" + exampleStyle.Render(ev.Text)
	case session.ResourcesFound:
		return renderResources(ev)
	case session.FollowUpStarted:
		return subtitleStyle.Render(fmt.Sprintf("Quick check on %s: %d questions", ev.Topic, len(ev.Questions)))
	case session.FollowUpAnswered:
		if ev.Correct {
			return correctStyle.Render("✓ Right")
		}
		return incorrectStyle.Render("✗ The answer was " + ev.Question.CorrectAnswer + ": " + ev.Question.CorrectChoiceText())
	case session.FollowUpCompleted:
		return subtitleStyle.Render(fmt.Sprintf("Quick check: %d/%d", ev.Correct, ev.Total))
	case session.SessionCompleted:
		return RenderSummary(ev.Summary)
	case session.SessionAborted:
		return incorrectStyle.Render("Session stopped: "+ev.Err.Error()) + "\n" + RenderSummary(ev.Summary)
	}
	return ""
}

func renderStart(ev session.SessionStarted) string {
	title := "Study session"
	if ev.Mode == profile.ModeReview {
		title = "Review session"
	}
	limit := "no question limit"
	if ev.Budget > 0 {
		limit = fmt.Sprintf("up to %d questions", ev.Budget)
	}
	return titleStyle.Render(title) + "\n" +
		hintStyle.Render(fmt.Sprintf("%s · %s · type :q or press Ctrl+C to stop", ev.StudentID, limit))
}

func renderQuestion(ev session.QuestionPresented) string {
	q := ev.Question
	header := fmt.Sprintf("Question %d · %s · %s", ev.Number, q.Topic, q.Difficulty)
	if ev.Review {
		header += " · review"
	}
	if ev.Try > 1 {
		header += fmt.Sprintf(" · try %d", ev.Try)
	}

	var b strings.Builder
	b.WriteString(subtitleStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(bodyStyle.Render(q.Prompt))
	if q.Type == bank.TypeMultipleChoice {
		for _, k := range q.ChoiceKeys() {
			b.WriteString("\n")
			b.WriteString(selectedStyle.Render(k+")") + " " + bodyStyle.Render(q.Choices[k]))
		}
	}
	return cardStyle.Render(b.String())
}

func renderVerdict(ev session.Evaluation) string {
	var label string
	switch ev.Verdict {
	case profile.VerdictCorrect:
		label = correctStyle.Render("✓ Correct")
	case profile.VerdictPartial:
		label = partialStyle.Render("~ Partly right")
	default:
		label = incorrectStyle.Render("✗ Not quite")
	}
	out := label + hintStyle.Render(fmt.Sprintf("  score %.2f", ev.Score))
	if ev.Rationale != "" {
		out += "\n" + bodyStyle.Render(ev.Rationale)
	}
	return out
}

func renderMastery(ev session.MasteryUpdated) string {
	after := ev.Delta.After
	level := mastery.LevelFor(after.Score, after.Attempts)
	arrow := "→"
	if ev.Delta.Change() > 0 {
		arrow = "↑"
	} else if ev.Delta.Change() < 0 {
		arrow = "↓"
	}
	return hintStyle.Render(fmt.Sprintf("%s %s ", ev.Delta.Topic, arrow)) +
		masteryBar(after.Score, barWidth) + " " + hintStyle.Render(string(level))
}

func renderResources(ev session.ResourcesFound) string {
	if len(ev.Resources) == 0 {
		return hintStyle.Render("No resources found for " + ev.Topic + ".")
	}
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("To brush up on " + ev.Topic + ":"))
	for _, r := range ev.Resources {
		b.WriteString("\n  • ")
		b.WriteString(bodyStyle.Render(r.Title))
		if r.URL != "" {
			b.WriteString("\n    ")
			b.WriteString(linkStyle.Render(r.URL))
		}
	}
	return b.String()
}

// RenderSummary renders the end-of-session report.
func RenderSummary(s session.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Session summary"))
	b.WriteString("\n")
	b.WriteString(bodyStyle.Render(fmt.Sprintf("Answered %d · correct %d · accuracy %.0f%% · average score %.2f",
		s.Attempts, s.Correct, s.Accuracy()*100, s.AverageScore())))
	if s.Skipped > 0 {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render(fmt.Sprintf("%d skipped after failed answers", s.Skipped)))
	}
	if reason := endReasonText(s.Reason); reason != "" {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render(reason))
	}
	if len(s.Topics) > 0 {
		b.WriteString("\n")
		width := 0
		for _, t := range s.Topics {
			width = max(width, lipgloss.Width(t.Topic))
		}
		for _, t := range s.Topics {
			b.WriteString("\n")
			b.WriteString(bodyStyle.Render(fmt.Sprintf("%-*s ", width, t.Topic)))
			b.WriteString(masteryBar(t.After, barWidth))
			b.WriteString(hintStyle.Render(topicChange(t)))
		}
	}
	return b.String()
}

func topicChange(t session.TopicDelta) string {
	if !t.HadBefore {
		return "  new"
	}
	return fmt.Sprintf("  %+.2f", t.Change())
}

func endReasonText(r session.EndReason) string {
	switch r {
	case session.EndBudget:
		return "Question limit reached."
	case session.EndExhausted:
		return "No more questions to ask."
	case session.EndStopped:
		return "Stopped."
	}
	return ""
}
