// Package slack implements the message source for Slack workspaces.
//
// The client reads public channels the bot has joined, channel history and
// thread replies through the Slack Web API, and posts answers back into
// threads. It is the only package that talks to Slack directly.
//
// # Architecture
//
// The client follows the driven port pattern defined in
// [driven.MessageSource]. It comprises the following components:
//
//   - Client: pagination over conversations.list, conversations.history
//     and conversations.replies
//   - RateLimiter: proactive token bucket throttling
//   - Retrier: reactive backoff on rate limit responses
//   - UserResolver: per-run cache of user display names
//
// # Rate Limiting
//
// The client implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket limits requests to roughly one
//     per second, the Tier 3 budget for the history methods.
//
//  2. Reactive handling: when Slack answers with HTTP 429 the same page is
//     requested again after min(max(Retry-After, 5*2^attempt), 60) seconds.
//     Rate limited requests are retried until they succeed or the context
//     is cancelled. No page is ever skipped.
//
// Any other error is returned immediately without retry.
//
// # Ordering
//
// conversations.history returns newest first. FetchHistory concatenates
// every page and reverses the result so callers always see messages oldest
// to newest. conversations.replies is already oldest first.
package slack
