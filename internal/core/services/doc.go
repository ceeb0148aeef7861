// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services never import adapters: Slack, the stores and the AI
// providers are all reached through driven ports.
package services
