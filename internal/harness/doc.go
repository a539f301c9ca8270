// Package harness runs transformation scenarios end to end.
//
// A scenario assembles a module, applies an ordered list of transformation
// records through the engine, and checks each step's outcome, the fact
// database and the final module. Every run is recorded and then replayed,
// so a scenario also proves the sequence is reproducible.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	target_env: spv1.3
//	module: |2
//	               OpCapability Shader
//	               ...
//	steps:
//	  - transformation:
//	      kind: add_constant_scalar
//	      fresh_id: 100
//	      type_id: 6
//	      words: [1]
//	      is_irrelevant: false
//	  - transformation: { ... }
//	    expect:
//	      outcome: rejected
//	      code: ID_COLLISION
//	assertions:
//	  - type: irrelevant
//	    ids: [106, 107]
//	  - type: final_module
//	    module: |2
//	      ...
//
// # Assertion Types
//
//   - irrelevant: every listed id is recorded irrelevant
//   - relevant: no listed id is recorded irrelevant
//   - defined: every listed id names an instruction
//   - applied_count: exactly count steps applied
//   - final_module: the module equals the expected text word for word
//   - valid: the module passes the structural validator
//
// # Deterministic Testing
//
// The harness uses:
//   - Fixed sequence ids (from scenario.sequence_id or testutil.DefaultSequenceID)
//   - The structural validator before the first and after every applied step
//   - In-memory SQLite database (isolated per run)
//
// Golden files hold the disassembled final module (see RunWithGolden).
package harness
