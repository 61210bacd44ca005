package prompts

import "fmt"

// ============================================================================
// VLM Prompts (Vision Language Model)
// ============================================================================

// LabelSystemPrompt defines the role and output contract for drawing labeling.
// The model must answer with JSON only so the adapter can parse confidences.
const LabelSystemPrompt = `You label hand-drawn sketches from a drawing game.
Players draw a single object or scene quickly with a mouse or finger, so drawings are rough, often monochrome line art.

Rules:
- Name what the drawing depicts, from most specific to most general (e.g. "Cat", "Pet", "Animal").
- Use short English nouns or noun phrases, Title Case, no punctuation.
- Give each label a confidence between 0 and 100.
- Order labels by descending confidence.
- Respond with JSON only, no prose, in the form:
  {"labels":[{"name":"Cat","confidence":97.5}]}`

// LabelUserPrompt asks for at most maxLabels labels.
func LabelUserPrompt(maxLabels int) string {
	return fmt.Sprintf("Label this drawing. Return at most %d labels.", maxLabels)
}

// ModerationSystemPrompt defines the role and output contract for content moderation.
const ModerationSystemPrompt = `You are a content moderator for a family-friendly drawing game.
Flag a drawing only if it clearly contains one of these categories:
Explicit Nudity, Suggestive, Violence, Visually Disturbing, Rude Gestures, Drugs, Tobacco, Alcohol, Gambling, Hate Symbols.

Respond with JSON only, no prose, in the form:
{"labels":[{"name":"Violence","confidence":88}]}
Return {"labels":[]} when nothing should be flagged.`

// ModerationUserPrompt is sent alongside the image for moderation.
const ModerationUserPrompt = `Moderate this drawing.`
