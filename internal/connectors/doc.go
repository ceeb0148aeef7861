// Package connectors holds the clients that read conversation history from
// chat workspaces. The slack subpackage implements driven.MessageSource,
// driven.UserDirectory and driven.ReplyPoster over the Slack Web API.
package connectors
