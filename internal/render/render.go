package render

import "strings"

// Render substitutes the context into the template. It is pure and
// deterministic: identical inputs always produce byte-identical output, which
// is what makes fingerprint comparison meaningful.
//
// Conditional regions are resolved first, then placeholders. Tokens that are
// not part of the vocabulary pass through verbatim.
func Render(tmpl *Template, ctx Context) string {
	out := tmpl.Content

	for _, f := range Fields {
		out = resolveConditional(out, string(f), ctx[f] != "")
	}

	for _, f := range Fields {
		value, ok := ctx[f]
		if !ok {
			continue
		}
		out = strings.ReplaceAll(out, "{{"+string(f)+"}}", value)
		out = strings.ReplaceAll(out, "{{"+string(f)+".yaml}}", yamlQuote(value))
	}

	return out
}

// resolveConditional handles every {{#if name}}...{{/if}} region for one
// field. When keep is true the delimiters are stripped and the body stays;
// otherwise the whole region is removed, trailing newlines of the delimiters
// included, so an absent block leaves no empty markup behind.
func resolveConditional(text, name string, keep bool) string {
	open := "{{#if " + name + "}}"
	const closeTag = "{{/if}}"

	for {
		start := strings.Index(text, open)
		if start == -1 {
			return text
		}
		rest := text[start+len(open):]
		end := strings.Index(rest, closeTag)
		if end == -1 {
			// Unbalanced region; validation rejects these for overrides, and
			// built-ins are balanced. Drop the stray open tag and stop.
			return text[:start] + rest
		}

		body := rest[:end]
		after := rest[end+len(closeTag):]
		after = strings.TrimPrefix(after, "\n")

		if keep {
			body = strings.TrimPrefix(body, "\n")
			text = text[:start] + body + after
		} else {
			text = text[:start] + after
		}
	}
}
