// Package zkip proves that a private IPv4 address does not belong to any of
// a named set of jurisdictions, without revealing the address, the matched
// range, or the jurisdiction it actually resolves to. The only revealed
// outputs are a boolean and a fixed-size commitment to the excluded set;
// the evaluation is deterministic and shape-independent so that nothing
// about the private inputs shows in proof metadata. See the Orchestrator
// type for the operation surface, and the rangetable, proving and encode
// subpackages for the table builder, backend boundary and proof encodings.
package zkip
