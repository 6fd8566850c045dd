// Package query parses, checks and evaluates path expressions over tonl
// value trees.
//
// The expression language:
//
//	$                 root (optional at the start)
//	.name ['name']    member access
//	[n]               list index, negative counts from the end
//	[*] .*            every element or value
//	[start:end:step]  Python-style slice, any part optional
//	..name ..*        recursive descent
//	[?(expr)]         filter, @ is the candidate element
//
// Filter expressions combine comparisons (== != > >= < <=, contains,
// startsWith, endsWith, matches) with ! && || and parentheses.
// The matches operator runs through package pattern.
//
// Parse builds a *Path, Validate checks it statically, Optimize folds
// constant predicates and Evaluate walks a tree. A Cache keeps parsed,
// validated paths keyed by their text.
package query
