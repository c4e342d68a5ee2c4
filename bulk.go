package access

import (
	"context"
	"sync"
)

// DecisionRequest is one access check in a bulk evaluation.
type DecisionRequest struct {
	Principal Principal
	Object    string
	Level     Level
	Resource  Resource
}

// DecisionResult pairs a request with its outcome.
type DecisionResult struct {
	Request  DecisionRequest
	Decision Decision
	Err      error
}

// DecideBulk evaluates many access checks through a bounded worker pool.
// List views use this to filter a page of records in one call. Results keep
// the order of the requests.
func (s *Service) DecideBulk(ctx context.Context, requests []DecisionRequest) []DecisionResult {
	results := make([]DecisionResult, len(requests))
	if len(requests) == 0 {
		return results
	}

	workerCount := 10
	if len(requests) < workerCount {
		workerCount = len(requests)
	}

	jobs := make(chan int, len(requests))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				req := requests[idx]
				d, err := s.Decide(ctx, req.Principal, req.Object, req.Level, req.Resource)
				results[idx] = DecisionResult{Request: req, Decision: d, Err: err}
			}
		}()
	}

	for i := range requests {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
