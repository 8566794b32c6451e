//go:build !darwin && !linux

package audio

func defaultCommand() []string {
	return lookFirst([]string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"})
}
