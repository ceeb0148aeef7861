// Package slackbot serves the Slack Events API front door.
//
// The server verifies request signatures, answers the url_verification
// handshake and acknowledges app_mention callbacks immediately. Each
// mention is then answered asynchronously and the reply is posted in
// the mention's thread. The same router serves /healthz and /metrics.
package slackbot
