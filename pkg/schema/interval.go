package schema

// Classification is the label IntervalDetector assigns to a contiguous
// run of samples.
type Classification string

const (
	ClassRecovery    Classification = "recovery"
	ClassEndurance   Classification = "endurance"
	ClassTempo       Classification = "tempo"
	ClassThreshold   Classification = "threshold"
	ClassVO2Max      Classification = "vo2max"
	ClassAnaerobic   Classification = "anaerobic"
	ClassSprint      Classification = "sprint"
	ClassZ2Z1Repeats Classification = "z2-z1-repeats"
)

// IntervalSummary describes one closed-open [StartSec, EndSec) window
// of a detected interval. Invariant for a full detection result: the
// intervals of the final pass partition [0, duration) contiguously
// with no overlap and no gap.
type IntervalSummary struct {
	StartSec       int            `json:"start_sec"`
	EndSec         int            `json:"end_sec"`
	Classification Classification `json:"classification"`

	AvgPower        Float `json:"avg_power"`
	PeakPower       Float `json:"peak_power"`
	NormalizedPower Float `json:"normalized_power"`
	IntensityFactor Float `json:"intensity_factor"`
	PowerRatio      Float `json:"power_ratio"`

	TimeAbove95  Float `json:"time_above_95"`
	TimeAbove106 Float `json:"time_above_106"`
	TimeAbove120 Float `json:"time_above_120"`
	TimeAbove150 Float `json:"time_above_150"`

	HeartRateAvg   Float `json:"heart_rate_avg,omitempty"`
	HeartRateMax   Float `json:"heart_rate_max,omitempty"`
	HeartRateSlope Float `json:"heart_rate_slope,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Duration in seconds (closed-open window length).
func (iv IntervalSummary) Duration() int {
	return iv.EndSec - iv.StartSec
}

// RepeatBlock is a Z2<->Z1 alternating chain reported by the detector's
// repeat-detection pass.
type RepeatBlock struct {
	Legs       []IntervalSummary `json:"legs"`
	CycleCount int               `json:"cycle_count"`
	Z2AvgRatio Float             `json:"z2_avg_ratio"`
	Z1AvgRatio Float             `json:"z1_avg_ratio"`
}

// IntervalDetectionResult is the full output of IntervalDetector.Run.
type IntervalDetectionResult struct {
	DurationSec int               `json:"duration_sec"`
	FTPWatts    int               `json:"ftp"`
	Intervals   []IntervalSummary `json:"intervals"`
	Repeats     []RepeatBlock     `json:"repeats"`
}
