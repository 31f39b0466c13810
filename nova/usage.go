package nova

import "time"

// Usage tracks token consumption and request counters for model interactions.
// Counters accumulate across requests via Add.
type Usage struct {
	RequestTokens      int
	ResponseTokens     int
	TotalTokens        int
	Requests           int
	SuccessfulRequests int
	FailedRequests     int
	TotalTime          time.Duration
	// Details carries provider-specific extras, e.g. whether token counts
	// were estimated locally instead of reported by the service.
	Details map[string]any
}

// Add merges other into u.
func (u *Usage) Add(other Usage) {
	u.RequestTokens += other.RequestTokens
	u.ResponseTokens += other.ResponseTokens
	u.TotalTokens += other.TotalTokens
	u.Requests += other.Requests
	u.SuccessfulRequests += other.SuccessfulRequests
	u.FailedRequests += other.FailedRequests
	u.TotalTime += other.TotalTime
	if len(other.Details) > 0 {
		if u.Details == nil {
			u.Details = make(map[string]any, len(other.Details))
		}
		for k, v := range other.Details {
			u.Details[k] = v
		}
	}
}

func usageFromWire(w *wireUsage) Usage {
	if w == nil {
		return Usage{}
	}
	u := Usage{
		RequestTokens:  w.InputTokens,
		ResponseTokens: w.OutputTokens,
		TotalTokens:    w.TotalTokens,
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.RequestTokens + u.ResponseTokens
	}
	return u
}
