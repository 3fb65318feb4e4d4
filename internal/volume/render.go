package volume

import (
	"strconv"

	"github.com/jmylchreest/volblock/internal/block"
)

// Nerd Font glyphs.
const (
	MuteIcon = '\U000F0581'
	ZeroIcon = '\U000F0E08'
)

// VolumeIcons are ordered from quietest to loudest.
var VolumeIcons = [...]rune{'\U000F057F', '\U000F0580', '\U000F057E'}

// MutedText is shown instead of a percentage when muted or silent.
const MutedText = "Muted"

// IconIndex returns the VolumeIcons bucket for a volume.
func IconIndex(volume int) int {
	n := len(VolumeIcons)
	return max(0, min(n-1, volume*n/100))
}

// Icon picks the glyph for s.
func Icon(s State) rune {
	switch {
	case s.Volume == 0:
		return ZeroIcon
	case s.Muted:
		return MuteIcon
	default:
		return VolumeIcons[IconIndex(s.Volume)]
	}
}

// Text returns the primary text for s.
func Text(s State) string {
	if s.Muted || s.Volume == 0 {
		return MutedText
	}
	return strconv.Itoa(s.Volume) + "%"
}

// Render maps s to block output. It never fails.
func Render(s State) block.Output {
	return block.Output{
		Icon:        Icon(s),
		PrimaryText: Text(s),
		Attention:   block.AttentionDim,
	}
}
