package diversity

import "sort"

// ProfileScorer 基于成员画像属性的打分器：
// 每个属性贡献「不同取值数 - 1」，空值不计。成员画像完全一致的分组得 0 分。
func ProfileScorer[T any](attrs func(T) map[string]string) ScoreFunc[T] {
	return func(members []T) float64 {
		distinct := make(map[string]map[string]struct{})
		for _, m := range members {
			for key, val := range attrs(m) {
				if val == "" {
					continue
				}
				set, ok := distinct[key]
				if !ok {
					set = make(map[string]struct{})
					distinct[key] = set
				}
				set[val] = struct{}{}
			}
		}

		score := 0.0
		for _, set := range distinct {
			score += float64(len(set) - 1)
		}
		return score
	}
}

// AttributeKeys 画像中出现过的属性名（排序后），用于报表展示
func AttributeKeys[T any](members []T, attrs func(T) map[string]string) []string {
	seen := make(map[string]struct{})
	for _, m := range members {
		for key := range attrs(m) {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
