package emailtools

import (
	"strings"
	"text/template"
)

// Prompt templates. Field names match the promptData struct.
var (
	analyzeToneTemplate = template.Must(template.New("analyze_email_tone").Parse(
		"Please analyze the tone of the following email draft. Describe the current tone and provide a bulleted list of suggestions for improvement.\n\n" +
			"Draft:\n---\n{{.EmailDraft}}"))

	rewriteTemplate = template.Must(template.New("rewrite_email").Parse(
		"Please rewrite the following email draft to have a '{{.TargetTone}}' tone. Provide only the rewritten version.\n\n" +
			"Draft:\n---\n{{.EmailDraft}}"))

	shortenTemplate = template.Must(template.New("shorten_email").Parse(
		"Please shorten the following email to be as concise as possible while retaining the core message. Provide only the shortened version.\n\n" +
			"Draft:\n---\n{{.EmailDraft}}"))

	expandTemplate = template.Must(template.New("expand_from_bullets").Parse(
		"Please expand the following bullet points into a well-formatted email. The goal of the email is: {{.Goal}}. Provide only the full email text.\n\n" +
			"Bullet Points:\n---\n{{.BulletPoints}}"))

	analyzeAndRewriteTemplate = template.Must(template.New("analyze_and_rewrite_email").Parse(
		"Please review the following email draft and respond in three sections.\n\n" +
			"## Tone Analysis\nDescribe the current tone of the draft.\n\n" +
			"## Suggestions\nProvide a bulleted list of suggestions for making it sound '{{.TargetTone}}'.\n\n" +
			"## Rewritten Email\nProvide the full email rewritten with a '{{.TargetTone}}' tone.\n\n" +
			"Draft:\n---\n{{.EmailDraft}}"))
)

type promptData struct {
	EmailDraft   string
	TargetTone   string
	BulletPoints string
	Goal         string
}

func render(t *template.Template, data promptData) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
