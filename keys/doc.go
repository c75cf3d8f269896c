// Package keys is a local-first store for the seeds that sign dataset
// proofs.
//
// Each named key is a 32-byte root seed kept hex encoded in a 0600 file.
// Purpose keys are derived deterministically from a root with
// proof.DeriveSeed and may be written next to it. A seed feeds either
// signature scheme, so the algorithm is chosen at signing time.
package keys
