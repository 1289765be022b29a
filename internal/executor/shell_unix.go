//go:build unix
// +build unix

package executor

import "os"

// shellArgv builds the argv for a command action. With a run-as user and
// elevated privileges the command is wrapped in a sudo privilege drop;
// otherwise sudo would just prompt and hang.
func shellArgv(command, runAs string) []string {
	if runAs != "" && os.Geteuid() == 0 {
		return []string{"sudo", "-u", runAs, "/bin/sh", "-c", command}
	}
	return []string{"/bin/sh", "-c", command}
}
