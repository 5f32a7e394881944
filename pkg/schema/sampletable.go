package schema

// SampleTable is the canonical per-second, time-aligned columnar
// representation of one activity's streams. It is built once by
// exactly one ingest (provider or native, see the ingest package) and
// is immutable afterwards — derived columns are filled in by the
// analytics layer before the table is handed to callers, but the base
// columns built by the ingest never change length or shift values.
type SampleTable struct {
	TimeSec      []int
	DistanceM    []Float
	AltitudeM    []Float
	SpeedMps     []Float
	PowerW       []Float
	HeartRateBpm []Float
	CadenceRpm   []Float
	TemperatureC []Float
	Latitude     []Float
	Longitude    []Float

	// Derived columns, filled in by DerivedStreams. Nil until computed.
	BestPowerCurve []int
	VAM            []Float
	Torque         []Float
	SPI            []Float
	PowerHrRatio   []Float
	WBalanceKJ     []Float
	ElapsedTime    []int
}

// Len reports the sample count. All non-empty columns must share this
// length (invariant 1 of the spec's testable properties).
func (t *SampleTable) Len() int {
	return len(t.TimeSec)
}

// At returns the Sample at index i, zero Float where a column is absent.
func (t *SampleTable) At(i int) Sample {
	s := Sample{TimeSec: t.TimeSec[i]}
	if i < len(t.DistanceM) {
		s.DistanceM = t.DistanceM[i]
	}
	if i < len(t.AltitudeM) {
		s.AltitudeM = t.AltitudeM[i]
	}
	if i < len(t.SpeedMps) {
		s.SpeedMps = t.SpeedMps[i]
	}
	if i < len(t.PowerW) {
		s.PowerW = t.PowerW[i]
	}
	if i < len(t.HeartRateBpm) {
		s.HeartRateBpm = t.HeartRateBpm[i]
	}
	if i < len(t.CadenceRpm) {
		s.CadenceRpm = t.CadenceRpm[i]
	}
	if i < len(t.TemperatureC) {
		s.TemperatureC = t.TemperatureC[i]
	}
	if i < len(t.Latitude) {
		s.Latitude = t.Latitude[i]
	}
	if i < len(t.Longitude) {
		s.Longitude = t.Longitude[i]
	}
	return s
}

func hasNonZero(col []Float) bool {
	for _, v := range col {
		if !v.IsNaN() && v != 0 {
			return true
		}
	}
	return false
}

// AvailableStreams returns the set of columns that contain at least
// one non-null, non-zero value, honoring the dependency rules of §3:
// power_hr_ratio needs power AND heart_rate, spi/torque need power AND
// cadence, w_balance needs power, vam needs altitude, best_power needs
// power.
func (t *SampleTable) AvailableStreams() map[StreamKey]bool {
	out := map[StreamKey]bool{}
	hasPower := hasNonZero(t.PowerW)
	hasHR := hasNonZero(t.HeartRateBpm)
	hasCadence := hasNonZero(t.CadenceRpm)
	hasAltitude := hasNonZero(t.AltitudeM)

	if len(t.TimeSec) > 0 {
		out[StreamTime] = true
	}
	if hasNonZero(t.DistanceM) {
		out[StreamDistance] = true
	}
	if hasNonZero(t.Latitude) && hasNonZero(t.Longitude) {
		out[StreamLatLng] = true
	}
	if hasAltitude {
		out[StreamAltitude] = true
	}
	if hasNonZero(t.SpeedMps) {
		out[StreamVelocitySmooth] = true
	}
	if hasHR {
		out[StreamHeartrate] = true
	}
	if hasCadence {
		out[StreamCadence] = true
	}
	if hasPower {
		out[StreamWatts] = true
	}
	if hasNonZero(t.TemperatureC) {
		out[StreamTemp] = true
	}
	if hasPower {
		out[StreamBestPower] = true
	}
	if hasPower && hasCadence {
		out[StreamSPI] = true
		out[StreamTorque] = true
	}
	if hasPower && hasHR {
		out[StreamPowerHrRatio] = true
	}
	if hasPower {
		out[StreamWBalance] = true
	}
	if hasAltitude {
		out[StreamVAM] = true
	}
	return out
}

// SessionSummary holds optional pre-aggregated totals. When present,
// metric computations prefer it over re-aggregating the raw streams.
type SessionSummary struct {
	TotalDistanceM  Float
	TotalTimerTimeS Float
	AvgSpeedMps     Float
	TotalAscentM    Float
	TotalDescentM   Float
	AvgHeartRate    Float
	MaxHeartRate    Float
	AvgPowerW       Float
	MaxPowerW       Float
	AvgCadenceRpm   Float
	MaxCadenceRpm   Float
}
