package fluffy

import (
	"context"
	"fmt"
	"golang.org/x/sync/semaphore"
	"hash"
	"hash/crc32"
	"math"
	"sync"
)

// Names of the supported dispatch policies
const (
	UnboundedPolicy = "unbounded"
	BoundedPolicy   = "bounded"
	PerUserPolicy   = "perUser"
)

// Work is a unit of processing submitted to a DispatchPolicy
type Work func()

// DispatchPolicy decides how the work for each fired trigger gets executed. Submit must never
// block on the execution of the work itself
type DispatchPolicy interface {
	// Submit schedules the work. The key (the sender's user id) may be used to order work
	Submit(key string, w Work)

	// Stop releases the policy's resources. Work submitted after Stop is dropped. In-flight work
	// isn't interrupted
	Stop()
}

// PolicyConfig holds the sizing of the dispatch policies
type PolicyConfig struct {
	MaxWorkers          int
	PartitionCount      int
	PartitionBufferSize int
}

// NewDispatchPolicy returns the dispatch policy with the given name
func NewDispatchPolicy(name string, pc PolicyConfig, log SLogger, ins *instrumenter) (p DispatchPolicy, err error) {
	switch name {
	case "", UnboundedPolicy:
		return newUnboundedPolicy(), nil
	case BoundedPolicy:
		return newBoundedPolicy(pc.MaxWorkers)
	case PerUserPolicy:
		return newPartitionRouter(pc.PartitionCount, pc.PartitionBufferSize, log, ins)
	}

	return nil, fmt.Errorf("Unknown dispatch policy [%s], should be one of [%s, %s, %s]", name, UnboundedPolicy, BoundedPolicy, PerUserPolicy)
}

// unboundedPolicy starts a goroutine for every submitted work
type unboundedPolicy struct {
	mu      sync.RWMutex
	stopped bool
}

func newUnboundedPolicy() (up *unboundedPolicy) {
	return new(unboundedPolicy)
}

// Submit implements DispatchPolicy
func (up *unboundedPolicy) Submit(key string, w Work) {
	up.mu.RLock()
	defer up.mu.RUnlock()

	if up.stopped {
		return
	}

	go w()
}

// Stop implements DispatchPolicy
func (up *unboundedPolicy) Stop() {
	up.mu.Lock()
	defer up.mu.Unlock()

	up.stopped = true
}

// boundedPolicy starts a goroutine for every submitted work but only lets maxWorkers of them
// execute concurrently. The others wait for a slot
type boundedPolicy struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
}

func newBoundedPolicy(maxWorkers int) (bp *boundedPolicy, err error) {
	if maxWorkers <= 0 {
		return nil, fmt.Errorf("A bounded dispatch policy needs a positive maxWorkers but was [%d]", maxWorkers)
	}

	bp = new(boundedPolicy)
	bp.sem = semaphore.NewWeighted(int64(maxWorkers))
	bp.ctx, bp.cancel = context.WithCancel(context.Background())

	return bp, nil
}

// Submit implements DispatchPolicy
func (bp *boundedPolicy) Submit(key string, w Work) {
	if bp.ctx.Err() != nil {
		return
	}

	go func() {
		// Acquire only fails once the policy is stopped
		if err := bp.sem.Acquire(bp.ctx, 1); err != nil {
			return
		}
		defer bp.sem.Release(1)

		w()
	}()
}

// Stop implements DispatchPolicy. Work still waiting for a slot is dropped
func (bp *boundedPolicy) Stop() {
	bp.cancel()
}

// partitionRouter executes work on ordered partitions. Work is routed to a partition by the hash
// of its key so that all the work for a given user is processed in order
type partitionRouter struct {
	log SLogger

	// workQueues with partition keyed by the hash of the work key
	workQueues []chan Work

	// workerTerminationSignals are closed to stop each partition's worker
	workerTerminationSignals []chan struct{}

	// hash function to direct work to partitions
	hasherMu sync.Mutex
	hasher   hash.Hash32
	hashMask int

	stopOnce sync.Once

	*instrumenter
}

func newPartitionRouter(partitionCount int, queueBufferSize int, log SLogger, ins *instrumenter) (pr *partitionRouter, err error) {
	if !isPowerOfTwo(partitionCount) {
		return nil, fmt.Errorf("A partition router can only work with a partitionCount that is a power of two but was [%d]", partitionCount)
	}

	if queueBufferSize <= 0 {
		return nil, fmt.Errorf("A partition router needs a positive queue buffer size but was [%d]", queueBufferSize)
	}

	pr = new(partitionRouter)
	pr.workQueues = make([]chan Work, partitionCount)
	for i := range pr.workQueues {
		pr.workQueues[i] = make(chan Work, queueBufferSize)
	}
	pr.workerTerminationSignals = make([]chan struct{}, partitionCount)
	for i := range pr.workerTerminationSignals {
		pr.workerTerminationSignals[i] = make(chan struct{})
	}
	pr.hasher = crc32.NewIEEE()
	pr.hashMask = hashMask(partitionCount)
	pr.log = log
	pr.instrumenter = ins

	for i := range pr.workQueues {
		go pr.runPartition(i)
	}

	return pr, nil
}

// runPartition executes the work of a partition in order until the partition is terminated
func (pr *partitionRouter) runPartition(partition int) {
	for {
		select {
		case w := <-pr.workQueues[partition]:
			w()
		case <-pr.workerTerminationSignals[partition]:
			pr.log.Debugf("Worker for partition [%d] terminated\n", partition)
			return
		}
	}
}

// Submit implements DispatchPolicy. It never waits on the partition's worker: when the
// partition's queue is full, the work is dropped
func (pr *partitionRouter) Submit(key string, w Work) {
	partition := pr.partitionForKey(key)

	select {
	case <-pr.workerTerminationSignals[partition]:
		return
	default:
	}

	pr.log.Debugf("Dispatching work for [%s] to partition [%d]\n", key, partition)
	accepted := true
	d := measure(func() {
		select {
		case pr.workQueues[partition] <- w:
		default:
			accepted = false
		}
	})

	if !accepted {
		pr.log.Printf("Queue of partition [%d] is full, dropping work for [%s]\n", partition, key)
	}

	if pr.instrumenter != nil {
		pr.coreMetrics.msgDispatchLatencyMillis.Record(context.Background(), d.Milliseconds(), pr.attrs)
		if !accepted {
			pr.coreMetrics.droppedWork.Add(context.Background(), 1, pr.attrs)
		}
	}
}

// Stop implements DispatchPolicy. Queued work that hasn't started yet may be dropped
func (pr *partitionRouter) Stop() {
	pr.stopOnce.Do(func() {
		for _, s := range pr.workerTerminationSignals {
			close(s)
		}
	})
}

// partitionForKey returns the partition index for a given key
func (pr *partitionRouter) partitionForKey(key string) (partition int) {
	pr.hasherMu.Lock()
	defer pr.hasherMu.Unlock()

	pr.hasher.Reset()
	pr.hasher.Write([]byte(key))
	res := pr.hasher.Sum32()

	// Keep only the rightmost bits so we have a max equal to the partition count
	return int(res) & pr.hashMask
}

// isPowerOfTwo returns true if val is a power of two or false if not
func isPowerOfTwo(val int) bool {
	return (val > 0) && (val&(val-1)) == 0
}

// hashMask builds a mask for a partitionCount (which should be a power of two) to get a hash value
// that is in the range of the number of partitions we have
func hashMask(partitionCount int) int {
	maskSize := int(math.Log2(float64(partitionCount)))
	mask := 0
	for i := 0; i < maskSize; i++ {
		mask = mask<<1 | 1
	}

	return mask
}
