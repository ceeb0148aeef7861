// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - MessageSource: Reads channels, history and thread replies from Slack
//   - UserDirectory: Looks up user display names
//   - EmbeddingService: Turns chunk and question text into vectors
//   - ChunkStore: Chunk persistence and similarity search
//   - CursorStore: Per-channel sync cursors
//   - ChunkBuilder: Partitions messages and builds thread and window chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, only retrieval is available.
//   - ReplyPoster: Posts answers back into a thread. Only the events bot uses it.
//   - UserResolver: Per-run name cache. Without it authors keep their ids.
//   - PromptStore: Answer template overrides. Without it the built-in prompt is used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
