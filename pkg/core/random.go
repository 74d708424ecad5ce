package core

// Random 乘数 48271、模 2^31-1 的线性同余发生器。
// 服务器整个生命周期只有一条随机数流,跨对局不重播种,
// 由引擎线程独占消费:相同种子加相同的加入顺序必然重放出相同对局。
type Random struct {
	seed uint64
}

// NewRandom 以命令行种子初始化随机数流
func NewRandom(seed uint32) *Random {
	return &Random{seed: uint64(seed)}
}

// Next 推进并返回流中的下一个值,永远不返回未推进的原始种子
func (r *Random) Next() uint64 {
	r.seed = r.seed * 48271 % 2147483647
	return r.seed
}
