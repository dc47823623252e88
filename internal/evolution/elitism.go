package evolution

// Elitism 返回已排序种群中最好的 k 个个体，最优的在前
func Elitism[G any](ranked Population[G], k int) Population[G] {
	k = min(k, len(ranked))
	elites := make(Population[G], 0, k)
	for i := 0; i < k; i++ {
		elites = append(elites, ranked[len(ranked)-1-i])
	}
	return elites
}

// Culling 去掉已排序种群中最差的 m 个个体，剩余的作为父本候选，最优的在前
func Culling[G any](ranked Population[G], m int) Population[G] {
	remaining := max(len(ranked)-m, 0)
	return Elitism(ranked, remaining)
}
