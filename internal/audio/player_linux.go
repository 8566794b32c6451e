//go:build linux

package audio

func defaultCommand() []string {
	return lookFirst(
		[]string{"paplay"},
		[]string{"pw-play"},
		[]string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		[]string{"aplay", "-q"},
	)
}
