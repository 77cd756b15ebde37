// Package model exposes the opaque model-call capability consumed by
// the execution graph: invoke(messages, boundTools) -> decision. Two
// adapters are provided, one over langchaingo llms.Model and one over
// the go-openai client. Prompt construction and model selection stay
// outside the engine.
package model
