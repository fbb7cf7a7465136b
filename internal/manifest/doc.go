// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package manifest decodes a package's nodes.hcl file into a model.Module.
//
// A manifest declares exactly one module block and one node block per node
// type the package contributes:
//
//	module "contrib-example" {
//	  version     = "1.2.0"
//	  description = "Example nodes"
//	}
//
//	node "example-in" {
//	  label    = "example in"
//	  category = "input"
//	  handler  = "file"
//
//	  property "filename" {
//	    type    = string
//	    default = "/tmp"
//	  }
//	}
//
// The handler attribute names a compiled-in Go handler (see package handlers)
// that initialises the node type when it is enabled.
package manifest
