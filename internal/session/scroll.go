package session

// NearBottomThreshold is how close to the bottom, in pixels, a viewport must
// be for auto-scroll to keep following new messages.
const NearBottomThreshold = 100

// FollowScroll decides whether the viewport should jump to the newest
// message after a snapshot. The initial load always jumps; afterwards the
// view only follows while the reader is near the bottom, so scrolling back
// through history is never yanked away.
func FollowScroll(firstSnapshot bool, distanceFromBottom float64) bool {
	if firstSnapshot {
		return true
	}
	return distanceFromBottom <= NearBottomThreshold
}
