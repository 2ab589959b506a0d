// Package codegen turns the optimized tree back into directive+text
// source. Plain mode produces the compact template; debug mode brackets
// each region with `{% !b id %}` / `{% !e id %}` markers and records the
// id-to-source mapping in the artifact's debug map.
package codegen
