//go:build windows
// +build windows

package executor

// shellArgv builds the argv for a command action. Run-as has no Windows
// equivalent here; config validation rejects it before execution.
func shellArgv(command, runAs string) []string {
	_ = runAs
	return []string{"cmd", "/C", command}
}
