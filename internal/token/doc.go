// Package token defines the lexical vocabulary of the template language:
// literal text, `{% %}` directive tags, `{{ }}` expressions, `{# #}`
// comments, and raw passthrough regions.
package token
