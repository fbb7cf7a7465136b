// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the in-memory representation of installed node modules
// and the node types they contribute.
//
// # Core Concepts
//
//   - Module: an installable package. It owns an ordered list of NodeTypes and
//     carries a module-level error when its manifest could not be loaded.
//
//   - NodeType: a single typed handler contributed by a module. Its lifecycle
//     is an explicit State (enabled, disabled, error); the error message is
//     only ever present in the error state.
//
//   - Snapshot: a point-in-time copy of every module, safe to hand to any
//     number of concurrent readers.
//
// Values in this package are plain data. Mutation happens by building a new
// value (WithState, Clone) and handing it to the store as a whole row.
package model
