package checker

// Builtins returns the factory table for the checkers compiled into
// warden. Configuration refers to these by id; anything else fails
// registry construction.
func Builtins() map[string]Factory {
	return map[string]Factory{
		"whitespace": newWhitespaceChecker,
		"secretscan": newSecretScanChecker,
		"todos":      newTodoChecker,
	}
}
