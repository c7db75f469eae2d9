package director

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Collaborator is the single contract every narrative generator
// implements. Implementations must return within the orchestrator's
// timeout or the turn treats them as failed.
type Collaborator interface {
	Respond(ctx context.Context, action string, contextText string) (string, error)
}

// FallbackNarrative is returned verbatim when a collaborator fails
// mid-turn. It stays in character so the session never breaks frame.
const FallbackNarrative = "The threads of the story tangle for a moment, and the world holds its breath. Steady yourself, adventurer. The tale will pick itself back up shortly."

// DefaultOptions is the safe option set used on the error path and when
// option extraction fails.
var DefaultOptions = []string{"Look Around", "Press Onward", "Check Your Belongings"}

// DefaultCollaboratorTimeout bounds each collaborator invocation.
const DefaultCollaboratorTimeout = 30 * time.Second

// optionsPrompt asks the primary collaborator for the next option set.
const optionsPrompt = "List exactly 3 short actions the player could take next, one per line, no numbering."

// contextSummaryLimit caps how much of each output is fed forward to
// later collaborators in the same turn.
const contextSummaryLimit = 400

// TurnResult is the output of one orchestrated turn. The caller commits
// it into the session: history append, ledger update, persistence.
type TurnResult struct {
	Outputs   map[string]string `json:"outputs"`
	Narrative string            `json:"narrative"`
	Options   []string          `json:"options"`
	Errored   bool              `json:"errored"`
	Decision  Decision          `json:"decision"`
}

// Orchestrator executes routed collaborators in sequence. Later
// collaborators see earlier outputs through the accumulated context, so
// invocation is never parallel.
type Orchestrator struct {
	collaborators map[string]Collaborator
	timeout       time.Duration
	logger        *slog.Logger
}

// NewOrchestrator wires the orchestrator to its collaborators
// explicitly. A zero timeout gets DefaultCollaboratorTimeout.
func NewOrchestrator(collaborators map[string]Collaborator, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultCollaboratorTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		collaborators: collaborators,
		timeout:       timeout,
		logger:        logger,
	}
}

// Execute runs the decision's collaborators in order, accumulating
// context. Any failure short-circuits the remaining stages and produces
// the fallback narrative and default options; the session survives.
func (o *Orchestrator) Execute(ctx context.Context, decision Decision, action, initialContext string) *TurnResult {
	result := &TurnResult{
		Outputs:  make(map[string]string),
		Decision: decision,
	}

	names := decision.Names()
	if len(names) == 0 {
		result.Errored = true
		result.Narrative = FallbackNarrative
		result.Options = DefaultOptions
		return result
	}

	accumulated := initialContext
	collected := make([]string, 0, len(names))

	for _, name := range names {
		output, err := o.invoke(ctx, name, action, accumulated)
		if err != nil {
			o.logger.Warn("Collaborator failed, short-circuiting turn",
				"collaborator", name,
				"error", err)
			result.Errored = true
			break
		}

		result.Outputs[name] = output
		collected = append(collected, output)
		accumulated += fmt.Sprintf("\n\n[%s] %s", name, summarize(output))
	}

	if result.Errored {
		result.Narrative = FallbackNarrative
		result.Options = DefaultOptions
		return result
	}

	result.Narrative = strings.Join(collected, "\n\n")
	result.Options = o.deriveOptions(ctx, names[0], accumulated)
	return result
}

// invoke runs one collaborator under the per-call timeout. A timeout or
// an empty response counts as a failure.
func (o *Orchestrator) invoke(parent context.Context, name, action, contextText string) (string, error) {
	collaborator, ok := o.collaborators[name]
	if !ok {
		return "", fmt.Errorf("no collaborator registered as %q", name)
	}

	ctx, cancel := context.WithTimeout(parent, o.timeout)
	defer cancel()

	type response struct {
		output string
		err    error
	}
	ch := make(chan response, 1)
	go func() {
		output, err := collaborator.Respond(ctx, action, contextText)
		ch <- response{output: output, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("collaborator %s timed out: %w", name, ctx.Err())
	case resp := <-ch:
		if resp.err != nil {
			return "", fmt.Errorf("collaborator %s: %w", name, resp.err)
		}
		if strings.TrimSpace(resp.output) == "" {
			return "", fmt.Errorf("collaborator %s returned an empty response", name)
		}
		return resp.output, nil
	}
}

// deriveOptions asks the primary collaborator for the next option set.
// Anything short of three parseable choices falls back to the defaults.
func (o *Orchestrator) deriveOptions(ctx context.Context, primary, contextText string) []string {
	raw, err := o.invoke(ctx, primary, optionsPrompt, contextText)
	if err != nil {
		o.logger.Debug("Option extraction failed, using defaults", "error", err)
		return DefaultOptions
	}

	options := ParseOptions(raw)
	if len(options) < 3 {
		o.logger.Debug("Option extraction yielded too few choices",
			"parsed", len(options))
		return DefaultOptions
	}
	return options[:3]
}

var optionTitle = cases.Title(language.English)

// ParseOptions extracts short choices from collaborator output, one per
// line, stripping bullets and numbering.
func ParseOptions(raw string) []string {
	var options []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		// Strip "1." / "2)" style numbering.
		if len(line) > 1 && line[0] >= '0' && line[0] <= '9' {
			line = strings.TrimLeft(line, "0123456789")
			line = strings.TrimLeft(line, ".) ")
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		options = append(options, optionTitle.String(line))
	}
	return options
}

// summarize truncates one collaborator's output for the accumulated
// context fed to later collaborators.
func summarize(output string) string {
	output = strings.TrimSpace(output)
	if len(output) <= contextSummaryLimit {
		return output
	}
	return output[:contextSummaryLimit] + "…"
}
