// Package serialization stores tensors and network checkpoints in the
// SafeTensors format.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor entries plus "__metadata__"]
//	  [Tensor data: little-endian, tensors in name order]
//
// Tensors are stored row-major with their dimensions listed outermost
// first, so a [H W C N] tensor is recorded with shape [N C H W]. The
// metadata carries a SHA-256 checksum of the data section, verified on
// read.
//
// Example usage:
//
//	// Save a checkpoint
//	err := serialization.SaveCheckpoint(path, net, serialization.CheckpointMeta{
//	    RunID: runID, Epoch: 3, Iteration: 1200,
//	})
//
//	// Restore it into a network of the same architecture
//	restored, meta, err := serialization.LoadCheckpoint(path, net)
package serialization
