package emailtools

import (
	"context"
	"fmt"
	"text/template"

	"github.com/harun/quill/pkg/schema"
	"github.com/harun/quill/pkg/toolexecutor"
)

// Tool names as exposed to callers.
const (
	AnalyzeToneTool       = "analyze_email_tone"
	RewriteTool           = "rewrite_email"
	ShortenTool           = "shorten_email"
	ExpandTool            = "expand_from_bullets"
	AnalyzeAndRewriteTool = "analyze_and_rewrite_email"
)

const (
	paramEmailDraft   = "email_draft"
	paramTargetTone   = "target_tone"
	paramBulletPoints = "bullet_points"
	paramGoal         = "goal"
)

const providerSideEffect = "Sends the supplied text to an external language model provider."

// Completer produces text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

func draftParam(description string) schema.ParameterSpec {
	return schema.ParameterSpec{Name: paramEmailDraft, Type: schema.TypeString, Description: description, Required: true}
}

var toneParam = schema.ParameterSpec{
	Name:        paramTargetTone,
	Type:        schema.TypeString,
	Description: "The desired tone (e.g., Formal, Confident, Friendly).",
	Required:    true,
}

// Descriptors returns the writing tools backed by c, in catalog order.
func Descriptors(c Completer) []toolexecutor.ToolDescriptor {
	return []toolexecutor.ToolDescriptor{
		{
			Name:        AnalyzeToneTool,
			Description: "Analyzes the tone of a draft email and provides feedback.",
			UseWhen:     "The user wants to know how an email comes across before sending it.",
			SideEffects: providerSideEffect,
			Schema:      schema.MustNew(draftParam("The user's draft email text.")),
			Handler:     promptHandler(c, analyzeToneTemplate),
		},
		{
			Name:        RewriteTool,
			Description: "Rewrites an email draft to match a specific target tone.",
			UseWhen:     "The user asks to make an email sound different, e.g. more formal or friendlier.",
			SideEffects: providerSideEffect,
			Schema:      schema.MustNew(draftParam("The email draft to rewrite."), toneParam),
			Handler:     promptHandler(c, rewriteTemplate),
		},
		{
			Name:        ShortenTool,
			Description: "Shortens an email draft to make it more concise.",
			UseWhen:     "The user says an email is too long or wants a tighter version.",
			SideEffects: providerSideEffect,
			Schema:      schema.MustNew(draftParam("The email draft to be shortened.")),
			Handler:     promptHandler(c, shortenTemplate),
		},
		{
			Name:        ExpandTool,
			Description: "Expands a list of bullet points into a full, well-formatted email.",
			UseWhen:     "The user has notes or bullet points and needs a complete email written from them.",
			SideEffects: providerSideEffect,
			Schema: schema.MustNew(
				schema.ParameterSpec{
					Name: paramBulletPoints, Type: schema.TypeString, Required: true,
					Description: "A list of bullet points or short notes.",
				},
				schema.ParameterSpec{
					Name: paramGoal, Type: schema.TypeString, Required: true,
					Description: "The overall goal or context of the email (e.g., 'a project update to my manager').",
				},
			),
			Handler: promptHandler(c, expandTemplate),
		},
		{
			Name:        AnalyzeAndRewriteTool,
			Description: "Analyzes a draft's tone, suggests improvements and rewrites it in a target tone, in one pass.",
			UseWhen:     "The user wants feedback and a rewritten version together.",
			SideEffects: providerSideEffect,
			Schema:      schema.MustNew(draftParam("The email draft to review and rewrite."), toneParam),
			Handler:     promptHandler(c, analyzeAndRewriteTemplate),
		},
	}
}

// promptHandler renders t from the call arguments and returns the
// completion verbatim.
func promptHandler(c Completer, t *template.Template) toolexecutor.ToolHandler {
	return func(ctx context.Context, args schema.Arguments) (string, error) {
		prompt, err := render(t, promptData{
			EmailDraft:   args.String(paramEmailDraft),
			TargetTone:   args.String(paramTargetTone),
			BulletPoints: args.String(paramBulletPoints),
			Goal:         args.String(paramGoal),
		})
		if err != nil {
			return "", fmt.Errorf("render prompt: %w", err)
		}
		return c.Complete(ctx, prompt)
	}
}

// Register adds the identity tool followed by the writing tools.
func Register(reg *toolexecutor.Registry, c Completer, identity string) error {
	if err := reg.Register(IdentityTool(identity)); err != nil {
		return err
	}
	for _, d := range Descriptors(c) {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}
