// Package memory exposes the retrieval capability the planner uses to
// ground new plans in prior context: retrieve(query, k) -> ranked
// snippets. The default adapter wraps a langchaingo vector store.
package memory
