// Package model defines shared data types used across the reconstruction engine.
//
// Conventions:
//   - Prices: int64 fixed-point ticks, 1 tick = 0.0001 (IEX DEEP precision)
//   - Timestamps: int64 nanoseconds since Unix epoch
//   - Sizes: int64 shares
//   - IDs: string for instruments, uuid.UUID for synthetic order ids
package model
