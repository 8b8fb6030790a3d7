package captureservice

import "time"

// reconciledElapsed is the wall-clock duration of a session minus every paused
// interval. A non-zero pauseStart means a pause is still open and counts up to
// now.
func reconciledElapsed(now, start time.Time, pausedAccum time.Duration, pauseStart time.Time) time.Duration {
	elapsed := now.Sub(start) - pausedAccum

	if !pauseStart.IsZero() {
		elapsed -= now.Sub(pauseStart)
	}

	if elapsed < 0 {
		return 0
	}

	return elapsed
}

// actualRate is the authoritative encoding rate: frames captured over
// reconciled elapsed seconds. The floor only guards the degenerate cases
// (near-zero elapsed time, zero frames) where the quotient is unusable;
// a slow source legitimately yields a fractional rate.
func actualRate(frames int, elapsed time.Duration, floor float64) float64 {
	if floor <= 0 {
		floor = 1
	}

	secs := elapsed.Seconds()
	if secs <= 0 || frames == 0 {
		return floor
	}

	return float64(frames) / secs
}
