//go:build darwin

package audio

func defaultCommand() []string {
	return lookFirst([]string{"afplay"})
}
