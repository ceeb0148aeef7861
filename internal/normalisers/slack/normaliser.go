// Package slack normalises Slack message markup into plain text.
package slack

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
)

var (
	channelRefPattern   = regexp.MustCompile(`<#[A-Z0-9]+\|([^>]+)>`)
	userMentionPattern  = regexp.MustCompile(`<@([A-Z0-9]+)>`)
	leadingMentionTag   = regexp.MustCompile(`(?i)^<@([A-Z0-9]+)>\s*`)
	leadingMentionPlain = regexp.MustCompile(`^@([A-Z0-9]+)\s*`)

	broadcastReplacer = strings.NewReplacer(
		"<!here>", "@here",
		"<!channel>", "@channel",
		"<!everyone>", "@everyone",
	)
)

// unknownAuthor labels lines whose author is absent.
const unknownAuthor = "unknown"

// Base rewrites channel references and broadcast mentions and trims the
// result. User mentions are left untouched.
func Base(text string) string {
	text = channelRefPattern.ReplaceAllString(text, "#$1")
	text = broadcastReplacer.Replace(text)
	return strings.TrimSpace(text)
}

// Normalise applies Base and replaces every <@ID> mention with @name.
// Each distinct id is resolved once; ids the resolver cannot map render
// as @ID.
func Normalise(ctx context.Context, text string, resolver driven.UserResolver) string {
	text = Base(text)

	matches := userMentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text
	}

	names := make(map[string]string, len(matches))
	for _, m := range matches {
		id := m[1]
		if _, ok := names[id]; ok {
			continue
		}
		name := id
		if resolver != nil {
			if resolved := resolver.Username(ctx, id); resolved != "" {
				name = resolved
			}
		}
		names[id] = name
	}

	text = userMentionPattern.ReplaceAllStringFunc(text, func(tok string) string {
		id := tok[2 : len(tok)-1]
		return "@" + names[id]
	})
	return strings.TrimSpace(text)
}

// FormatUserLine renders a chunk line as "@name: text".
func FormatUserLine(name, text string) string {
	if name == "" {
		name = unknownAuthor
	}
	return "@" + name + ": " + text
}

// StripLeadingMention applies Base and removes a bot mention at the start
// of a question, in either tag (<@U123>) or plain (@U123) form. The plain
// form only matches upper-case ids so a leading @here survives.
func StripLeadingMention(text string) string {
	text = Base(text)
	text = leadingMentionTag.ReplaceAllString(text, "")
	text = leadingMentionPlain.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
