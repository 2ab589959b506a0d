// Package ast defines the template node tree produced by the parser and
// refined by the structural normalizer. Nodes are tagged variants: one Node
// struct with a Kind discriminator, so optimization passes can rewrite a
// node in place (e.g. fold a directive into literal text) without reshaping
// the tree around it.
package ast
