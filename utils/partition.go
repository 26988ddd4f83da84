package utils

import (
	"runtime"
	"sync"
)

// PartitionMap splits a linear index space (horizontal columns, cells) into
// ParallelDegree contiguous buckets with a maximum imbalance of one item.
type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree > maxIndex {
		ParallelDegree = maxIndex
	}
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		kMax = pm.MaxIndex
		return
	}
	var (
		k1, k2 = pm.GetBucketRange(bn)
	)
	kMax = k2 - k1
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into pm.ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}

// RunParallel executes work(kMin, kMax, bucketNum) once per bucket, one
// goroutine per bucket, and blocks until all buckets complete. This is the
// launch primitive for embarrassingly parallel column kernels.
func (pm *PartitionMap) RunParallel(work func(kMin, kMax, bucketNum int)) {
	var wg sync.WaitGroup
	for n := 0; n < pm.ParallelDegree; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(n)
			work(kMin, kMax, n)
		}(n)
	}
	wg.Wait()
}

// DefaultParallelDegree is the launch width used when a caller does not
// configure one explicitly.
func DefaultParallelDegree() int {
	return runtime.NumCPU()
}
