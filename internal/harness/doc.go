// Package harness runs end-to-end scenarios against an in-process fixture
// remote.
//
// A scenario declares what the remote knows, the commands to issue and
// what the cache and log must look like afterwards. Each run uses a fresh
// in-memory SQLite database and the real dispatcher, engine and store, so
// a scenario exercises the same pipeline the CLI does.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session: fixed-session-id          # optional
//	root: tree                         # traversal root, alias or hex
//	handles:
//	  tree: "00...01"
//	  leaf: "00...02"
//	remote:
//	  trees:
//	    - { handle: tree, children: [leaf] }
//	  descriptions:
//	    - { handle: leaf, text: "a leaf" }
//	  relations:
//	    - { handle: leaf, op: eval, rhs: tree }
//	  explanations:
//	    - { target: tree, op: eval, lhs: leaf, rhs: tree }
//	  candidates:
//	    - { target: tree, handles: [leaf] }
//	  statuses:
//	    - { command: "description tree", code: 500 }
//	  raw:
//	    - { command: "relations tree apply", body: '{"op":"0","rhs":""}' }
//	steps:
//	  - commands:
//	      - contents tree
//	      - description leaf
//	assertions:
//	  - { type: relation, lhs: tree, kind: tree_entry, target: leaf, index: 0 }
//	  - { type: failure, command: "description tree", code: HTTP_500 }
//	  - { type: reachable, handles: [tree, leaf] }
//	  - { type: cache_size, count: 2 }
//	  - { type: log_count, count: 4 }
//
// Anywhere a handle is expected, a key of the handles map may be used in
// place of the 64 character hex form. Command words are expanded the same
// way.
//
// Commands within a step are issued concurrently; the harness waits for
// every outcome before the next step starts.
//
// # Assertion Types
//
//   - relation: the cache holds (absent: false) or lacks (absent: true) a relation
//   - failure: a request for command failed with the given error code
//   - reachable: the set of nodes reachable from root is exactly handles
//   - cache_size: the cache holds exactly count relations
//   - log_count: the session logged exactly count entries
//
// # Golden Files
//
// RunWithGolden compares the persisted log (grouped by seq), failures and
// the rendered traversal against testdata/golden/{name}.golden. Regenerate
// with:
//
//	go test ./internal/harness -update
package harness
