// AgentGraph - Autonomous Task Execution for LLM Agents in Go
//
// AgentGraph is an execution engine for LLM-driven agents that perform
// real-world actions on behalf of users. It decomposes a high-level
// objective into discrete tasks, executes each task through a bounded
// sequence of tool invocations, validates outcomes, and can pause
// mid-execution to request human input, later resuming from exactly
// where it left off.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/helixstack/agentgraph
//
// Wire an engine and a supervisor:
//
//	llm, _ := openai.New(openai.WithModel("gpt-4o"))
//	runner, _ := tool.NewRunner([]tools.Tool{myTool{}}, tool.Options{
//		CallTimeout: 30 * time.Second,
//	})
//	defer runner.Close()
//
//	engine, _ := graph.NewEngine(graph.EngineOptions{
//		Caller:      model.NewLangchainCaller(llm),
//		Runner:      runner,
//		Checkpoints: memory.NewMemoryCheckpointStore(),
//		Config:      graph.DefaultConfig(),
//	})
//	supervisor, _ := agent.NewSupervisor(agent.Options{Engine: engine})
//
//	stream, _ := supervisor.Execute(ctx, agent.Request{
//		ThreadID: "thread-1",
//		Input:    "check the balance of wallet 0xabc",
//	})
//	for chunk := range stream {
//		// model call events, interrupts, final answer
//	}
//
// # Architecture
//
// The engine is a state machine over a closed set of nodes:
//
//	Planner -> Executor <-> ToolRunner -> Validator -> EndGraph
//	                \-> HumanHandler (pause / resume)
//
// The planner opens one task at a time. The executor asks the model for
// the next decision and routes it: tool calls go to the tool runner
// (with constraint validation and optional parallel dispatch), end_task
// goes to the validator, block_task or a tripped human-in-the-loop gate
// pauses the run. Every transition writes a checkpoint before its
// events are emitted, so a crash never replays an already-surfaced
// step.
//
// # Packages
//
//   - graph: the execution engine, state, events, and visualization
//   - agent: the Supervisor façade (resume detection, notification,
//     per-thread cancellation, cleanup)
//   - policy: the execution-constraints manager and HITL tiers
//   - tool: the tool runner and catalog
//   - model: the model-call capability over langchaingo or the OpenAI
//     client
//   - store: checkpoint persistence (in-memory, SQLite, Postgres,
//     Redis)
//   - memory: the retrieval capability grounding new plans
//   - task: the task/step data model and error taxonomy
//   - log: the logging facade
//
// # Checkpointing and Resume
//
// Checkpoints are append-only per thread with strictly increasing
// steps; only the latest is authoritative. A paused run records its
// pending prompt in the checkpoint; a later Execute on the same thread
// detects the interrupt and feeds the caller's text back into the node
// that paused. Runs that finish without a pending interrupt delete the
// thread's checkpoints.
//
// # Examples
//
// See examples/balance_agent for a plain tool-calling run and
// examples/human_in_the_loop for the pause/approve/resume flow.
package agentgraph
