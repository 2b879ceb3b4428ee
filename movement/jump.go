package movement

// JumpState 二段跳状态：落地重置 <-> 空中已消耗
type JumpState uint8

const (
	// JumpReady 二段跳可用（落地时恢复）
	JumpReady JumpState = iota
	// JumpSpent 本次离地期间已经用掉空中跳跃
	JumpSpent
)

func (s JumpState) String() string {
	switch s {
	case JumpReady:
		return "ready"
	case JumpSpent:
		return "spent"
	default:
		return "unknown"
	}
}

// land 触地：无论之前状态如何都恢复可用
func (s JumpState) land() JumpState { return JumpReady }

// tryAirJump 尝试消耗空中跳跃，返回新状态与是否成功
func (s JumpState) tryAirJump() (JumpState, bool) {
	if s != JumpReady {
		return s, false
	}
	return JumpSpent, true
}
