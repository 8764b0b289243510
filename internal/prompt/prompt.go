// Package prompt renders the call script and opening line handed to the
// voice assistant for each prospect.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/user/signalcall/internal/types"
)

// sdrTemplate is the system prompt for the voice assistant. It frames the
// whole call, so changes here change what the assistant says on real calls.
const sdrTemplate = `You are a voice-first AI SDR calling {{.Name}} at {{.Company}}.

Context (from intent signals):
- Signal: {{.Signal}}
- Persona: {{.Persona}}
- Likely pain point: {{.PainPoint}}

Your goal:
1) Confirm you're speaking to the right person and their role.
2) Qualify interest and urgency.
3) If qualified, propose a short meeting and secure a verbal commitment.

Style:
- Crisp, friendly, confident.
- Ask short questions.
- If they object, handle objections calmly.
- Do not be overly pushy.
- End with a clear next step.

At the end of the call, ensure you have enough info to produce:
- intent_score (0-100)
- qualification summary (2-5 bullets)
- next_step (specific)
`

var sdrPrompt = template.Must(template.New("sdr").Parse(sdrTemplate))

type promptData struct {
	Name      string
	Company   string
	Signal    string
	Persona   string
	PainPoint string
}

// BuildSDRPrompt renders the call script for a prospect. Optional fields
// render as explicit placeholders so the assistant knows they are unknown
// rather than empty.
func BuildSDRPrompt(req types.CallRequest) string {
	data := promptData{
		Name:      req.Name,
		Company:   req.Company,
		Signal:    req.Signal,
		Persona:   req.Persona,
		PainPoint: req.PainPoint,
	}
	if data.Persona == "" {
		data.Persona = "Unknown persona"
	}
	if data.PainPoint == "" {
		data.PainPoint = "Not specified"
	}

	var b strings.Builder
	// The template references only fields that exist on promptData, so
	// Execute cannot fail.
	_ = sdrPrompt.Execute(&b, data)
	return b.String()
}

// OpeningMessage is the first thing the assistant says when the prospect
// picks up.
func OpeningMessage(name, signal string) string {
	return fmt.Sprintf("Hi %s, I'm reaching out because %s. Do you have a quick minute?", name, signal)
}
