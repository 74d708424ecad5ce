package core

import "robots/pkg/protocol"

// VisitExplosion 从炸弹格出发,沿四个正方向逐格扫描爆炸波及的格子。
// visit 对每个波及到的格子调用一次;返回 false 表示该格被方块占据,
// 方块吸收爆炸,这条射线到此为止(方块所在格本身仍算被波及)。
// 炸弹格最先被访问,若它自己就有方块,四条射线都不延伸。
// 射线顺序固定为左、右、下、上,服务器事件里格子的出现次序依赖这一点。
func VisitExplosion(center protocol.Position, radius, sizeX, sizeY uint16, visit func(protocol.Position) bool) {
	if !visit(center) {
		return
	}
	directions := [4][2]int{
		{-1, 0}, // 左
		{1, 0},  // 右
		{0, -1}, // 下
		{0, 1},  // 上
	}
	for _, d := range directions {
		x, y := int(center.X), int(center.Y)
		for i := uint16(0); i < radius; i++ {
			x += d[0]
			y += d[1]
			if x < 0 || y < 0 || x >= int(sizeX) || y >= int(sizeY) {
				break
			}
			if !visit(protocol.Position{X: uint16(x), Y: uint16(y)}) {
				break
			}
		}
	}
}
