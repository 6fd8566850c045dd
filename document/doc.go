// Package document wraps a tonl value tree with path-based access.
//
// A Document is parsed once and then queried and modified through path
// expressions. Parsed paths are kept in a per-document LRU cache, so
// repeating an expression skips the parser and the validator.
//
//	doc, err := document.FromJSON(data, document.DefaultOptions())
//	admins, err := doc.Query(`users[?(@.role == "admin")].name`)
//	err = doc.Set("users[0].active", tonl.Bool(true))
//
// A Document is not safe for concurrent use while it is being modified.
package document
