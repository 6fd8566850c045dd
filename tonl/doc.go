// Package tonl implements TONL, a compact line-oriented notation for JSON-like
// data that spends fewer tokens than JSON on repeated structure.
//
// # Data Model
//
// A Value is one of Null, Bool, Int, Float, String, *List or *Object.
// Objects keep insertion order. Int and Float stay distinct across a round
// trip: floats are always written with a '.' or an exponent.
//
// # Notation
//
//	#version 1.0
//	name: Alice
//	tags[3]: admin, ops, dev
//	address{city,zip}:
//	  city: Paris
//	  zip: "75001"
//	users[2]{id:u32,name:str}:
//	  1, Alice
//	  2, Bob
//	events[2]:
//	  [0]: started
//	  [1]{at,level}:
//	    at: 12
//	    level: warn
//
// Directives (#version, #delimiter, #types, #root) come first. Any other
// line starting with '#' is a comment.
//
// Strings are written bare unless NeedsQuoting says otherwise. Strings
// spanning lines use triple quotes. Inside a table row an empty unquoted
// field means the member is absent, while an empty string is written "".
//
// # Limits
//
// Decode, FromJSON and Encode enforce Limits on input size, nesting depth,
// node count and object width before doing unbounded work.
package tonl
