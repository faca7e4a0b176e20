// Package diversity 对班级的分组构成进行多样性评估：
// 组合数较小时穷举全部分组，否则随机抽样，最终汇总为 Report。
package diversity

import (
	"errors"
	"math/big"
	"math/rand"
)

const (
	// DefaultExhaustiveLimit 组合数不超过该值时穷举
	DefaultExhaustiveLimit = 1000
	// DefaultSampleCount 抽样路径的样本数
	DefaultSampleCount = 1000
	// MinValidScore 低于该分数的分组视为退化，不计入统计
	MinValidScore = 1.0
)

var (
	// ErrSamplingExhausted 所有分组得分均被丢弃，无法计算平均值
	ErrSamplingExhausted = errors.New("没有有效的分组得分")
	// ErrInvalidGroupSize 小组人数必须为正数
	ErrInvalidGroupSize = errors.New("小组人数必须大于 0")
)

// ScoreFunc 对一组成员打分。
// members 在各次调用间复用同一底层数组，仅在本次调用内有效；需要保留时自行复制。
type ScoreFunc[T any] func(members []T) float64

// Limits 穷举阈值与样本数；零值字段取默认值
type Limits struct {
	Exhaustive int64
	Samples    int
}

func (l Limits) withDefaults() Limits {
	if l.Exhaustive <= 0 {
		l.Exhaustive = DefaultExhaustiveLimit
	}
	if l.Samples <= 0 {
		l.Samples = DefaultSampleCount
	}
	return l
}

// Report 多样性分析结果。Min/Max/Average 在没有有效得分时为 nil。
type Report struct {
	PopulationSize int      `json:"student_count"`
	GroupSize      int      `json:"group_size"`
	Combinations   *big.Int `json:"combinations"`
	Exhaustive     bool     `json:"actual"`
	Evaluated      int      `json:"evaluated"`
	Valid          int      `json:"valid"`
	Min            *float64 `json:"min"`
	Max            *float64 `json:"max"`
	Average        *float64 `json:"average"`
	ClassScore     float64  `json:"class_score"`
}

// Combinations n 选 k，k > n 时为 0
func Combinations(n, k int) *big.Int {
	if k < 0 || k > n {
		return big.NewInt(0)
	}
	return new(big.Int).Binomial(int64(n), int64(k))
}

// Analyze 评估 population 按 groupSize 分组的多样性。
//
// 组合数不超过 limits.Exhaustive 时逐一评分全部组合；否则抽取 limits.Samples 个样本，
// 每个样本内成员互不重复，样本之间允许重复。rng 为随机源，仅抽样路径使用。
// 得分小于 MinValidScore 的分组被丢弃；若全部被丢弃，返回报告的同时返回 ErrSamplingExhausted。
func Analyze[T any](population []T, groupSize int, score ScoreFunc[T], rng *rand.Rand, limits Limits) (*Report, error) {
	if groupSize <= 0 {
		return nil, ErrInvalidGroupSize
	}
	limits = limits.withDefaults()

	n := len(population)
	report := &Report{
		PopulationSize: n,
		GroupSize:      groupSize,
		Combinations:   Combinations(n, groupSize),
		ClassScore:     score(population),
	}
	report.Exhaustive = report.Combinations.Cmp(big.NewInt(limits.Exhaustive)) <= 0

	var acc accumulator
	group := make([]T, groupSize)
	switch {
	case report.Combinations.Sign() == 0:
		// 人数不足一组，没有可评估的分组
	case report.Exhaustive:
		eachCombination(n, groupSize, func(idx []int) {
			for i, p := range idx {
				group[i] = population[p]
			}
			acc.add(score(group))
		})
	default:
		if rng == nil {
			rng = rand.New(rand.NewSource(rand.Int63()))
		}
		perm := make([]int, n)
		for s := 0; s < limits.Samples; s++ {
			samplePrefix(rng, perm, groupSize)
			for i := 0; i < groupSize; i++ {
				group[i] = population[perm[i]]
			}
			acc.add(score(group))
		}
	}

	report.Evaluated = acc.evaluated
	report.Valid = acc.valid
	if acc.valid == 0 {
		return report, ErrSamplingExhausted
	}
	avg := acc.sum / float64(acc.valid)
	report.Min, report.Max, report.Average = &acc.min, &acc.max, &avg
	return report, nil
}

type accumulator struct {
	evaluated, valid int
	sum, min, max    float64
}

func (a *accumulator) add(v float64) {
	a.evaluated++
	if v < MinValidScore {
		return
	}
	if a.valid == 0 || v < a.min {
		a.min = v
	}
	if a.valid == 0 || v > a.max {
		a.max = v
	}
	a.valid++
	a.sum += v
}

// eachCombination 按字典序枚举 {0..n-1} 的全部 k 元组合
func eachCombination(n, k int, fn func(idx []int)) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// samplePrefix 重置 perm 并做前 k 步 Fisher-Yates，perm[:k] 即为不重复的随机样本
func samplePrefix(rng *rand.Rand, perm []int, k int) {
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(perm)-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
}
