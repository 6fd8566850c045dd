// Package pattern guards regular expressions supplied by untrusted input.
//
// Validate rejects pattern shapes known to trigger catastrophic
// backtracking before anything is compiled. Compile and Match run the
// pattern through a backtracking engine bounded by a wall-clock budget:
//
//	m, err := pattern.Compile(`^[a-z]+$`, pattern.DefaultExecOptions())
//	if err != nil {
//		// *SecurityError names the rule that rejected the pattern
//	}
//	ok, err := m.Match("hello")
//
// Every rejection is a *SecurityError carrying a stable rule name for
// audit logs. Security faults never degrade to "no match".
package pattern
