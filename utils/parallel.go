// Package utils holds small shared helpers with no domain knowledge.
package utils

import (
	"context"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the
	// number of groups work will be split into.
	BeforeParallelGroupWorkFunc func(numGroups int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for
	// merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel fans the given amount of work out over at most workers
// goroutine groups and waits for all of them. Each group sees a contiguous
// [from, to) slice of the work, so index-ordered merges stay deterministic
// regardless of scheduling. A workers value below one uses GOMAXPROCS.
func GroupWorkParallel(ctx context.Context, totalSize, workers int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > totalSize {
		workers = totalSize
	}
	if workers < 1 {
		workers = 1
	}
	groupSize := totalSize / workers
	extra := totalSize % workers

	numGroups := workers
	before(numGroups)

	var wait sync.WaitGroup
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNumCopy := groupNum
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			groupNum := groupNumCopy

			thisGroupSize := groupSize
			if groupNum == numGroups-1 {
				thisGroupSize += extra
			}
			from := groupSize * groupNum
			to := from + thisGroupSize
			memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork != nil {
				memberNum := 0
				for workNum := from; workNum < to; workNum++ {
					memberWork(memberNum, workNum)
					memberNum++
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
		})
	}
	wait.Wait()
	return ctx.Err()
}
