package core

import "robots/pkg/protocol"

// Step 计算从 p 朝 dir 走一格后的目标格。
// 目标越出 [0,sizeX)×[0,sizeY) 时 ok 为 false。
// 坐标系与协议一致:Up 是 y+1,Down 是 y-1,Left 是 x-1,Right 是 x+1。
func Step(p protocol.Position, dir protocol.Direction, sizeX, sizeY uint16) (protocol.Position, bool) {
	x, y := int(p.X), int(p.Y)
	switch dir {
	case protocol.DirUp:
		y++
	case protocol.DirDown:
		y--
	case protocol.DirLeft:
		x--
	case protocol.DirRight:
		x++
	}
	if x < 0 || y < 0 || x >= int(sizeX) || y >= int(sizeY) {
		return protocol.Position{}, false
	}
	return protocol.Position{X: uint16(x), Y: uint16(y)}, true
}
