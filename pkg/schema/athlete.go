package schema

// AthleteProfile holds the fields of an athlete the core analytics
// engine consumes: threshold power/HR settings and the rolling
// fitness/fatigue/form state maintained by the rollup component.
type AthleteProfile struct {
	ID                    int64 `json:"id" db:"id"`
	FTPWatts              int   `json:"ftp_w" db:"ftp"`
	WPrimeJoules          int   `json:"w_prime_j" db:"w_balance"`
	MaxHeartRateBpm       int   `json:"max_hr_bpm" db:"max_heartrate"`
	ThresholdHeartRateBpm int   `json:"threshold_hr_bpm" db:"threshold_heartrate"`
	IsThresholdActive     bool  `json:"is_threshold_active" db:"is_threshold_active"`
	WeightKg              Float `json:"weight_kg" db:"weight"`

	// ATL/CTL/TSB are the rolling acute/chronic training load and form,
	// recomputed by the rollup after each analysis (SPEC_FULL §4.6).
	ATL float64 `json:"atl" db:"atl"`
	CTL float64 `json:"ctl" db:"ctl"`
	TSB float64 `json:"tsb" db:"tsb"`
}

// HasValidFTP reports whether the athlete's FTP can be used as-is by
// the analytics layer (§4.12 step 4: a null/<=0 FTP must trigger the
// estimator or abort).
func (a *AthleteProfile) HasValidFTP() bool {
	return a != nil && a.FTPWatts > 0
}

// HasValidWPrime reports whether the W'-balance model has a usable
// anaerobic capacity input (§8 boundary: w_prime<=0 => w_balance all zero).
func (a *AthleteProfile) HasValidWPrime() bool {
	return a != nil && a.WPrimeJoules > 0
}
